package sink

import "os"

// Credentials holds the secrets each backend may need. Empty fields fall
// back to the backend's defaults where it has any.
type Credentials struct {
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Custom endpoint for S3-compatible stores (MinIO, R2).

	GCSCredentialsFile string
	GCSEndpoint        string // JSON API base URL of an emulator; skips auth unless a credentials file is set.

	SFTPPassword   string
	SFTPKeyFile    string // PEM private key.
	SFTPKnownHosts string // known_hosts file; empty skips host key checks.
}

// Environment variables read by CredentialsFromEnv.
const (
	EnvS3Region       = "PDFCOMPRESS_S3_REGION"
	EnvS3AccessKey    = "PDFCOMPRESS_S3_ACCESS_KEY"
	EnvS3SecretKey    = "PDFCOMPRESS_S3_SECRET_KEY"
	EnvS3Endpoint     = "PDFCOMPRESS_S3_ENDPOINT"
	EnvGCSCredentials = "PDFCOMPRESS_GCS_CREDENTIALS"
	EnvGCSEndpoint    = "PDFCOMPRESS_GCS_ENDPOINT"
	EnvSFTPPassword   = "PDFCOMPRESS_SFTP_PASSWORD"
	EnvSFTPKeyFile    = "PDFCOMPRESS_SFTP_KEY"
	EnvSFTPKnownHosts = "PDFCOMPRESS_SFTP_KNOWN_HOSTS"
)

// CredentialsFromEnv reads credentials via getenv (os.Getenv when nil). The
// standard AWS_* variables are used when the PDFCOMPRESS_S3_* ones are unset.
func CredentialsFromEnv(getenv func(string) string) Credentials {
	if getenv == nil {
		getenv = os.Getenv
	}
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				return v
			}
		}
		return ""
	}
	return Credentials{
		S3Region:           first(EnvS3Region, "AWS_REGION", "AWS_DEFAULT_REGION"),
		S3AccessKey:        first(EnvS3AccessKey, "AWS_ACCESS_KEY_ID"),
		S3SecretKey:        first(EnvS3SecretKey, "AWS_SECRET_ACCESS_KEY"),
		S3Endpoint:         first(EnvS3Endpoint),
		GCSCredentialsFile: first(EnvGCSCredentials, "GOOGLE_APPLICATION_CREDENTIALS"),
		GCSEndpoint:        first(EnvGCSEndpoint),
		SFTPPassword:       first(EnvSFTPPassword),
		SFTPKeyFile:        first(EnvSFTPKeyFile),
		SFTPKnownHosts:     first(EnvSFTPKnownHosts),
	}
}
