package probe

// Info holds the document information dictionary fields reported by pdfcpu.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Creator  string
	Producer string
}

// Empty reports whether every field is blank.
func (i Info) Empty() bool {
	return i.Title == "" && i.Author == "" && i.Subject == "" &&
		len(i.Keywords) == 0 && i.Creator == "" && i.Producer == ""
}

// ProbeResult is the parsed outcome of a single pdfcpu info call.
type ProbeResult struct {
	Source             string
	Version            string // PDF header version, e.g. "1.7".
	PageCount          int
	Encrypted          bool
	Linearized         bool
	Tagged             bool
	UsingObjectStreams bool
	HasForm            bool
	Info               Info
}
