package compress

import (
	"context"
	"fmt"

	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/planner"
)

// Stage names, in pipeline order.
const (
	StageMetadataStrip   = "metadata-strip"
	StageImageRecompress = "image-recompress"
	StageQualityReduce   = "quality-reduce"
	StagePageOptimize    = "page-optimize"
)

// StageOutcome is what one stage hands to the next. Artifact is always
// valid: on failure it is the stage's input, unchanged.
type StageOutcome struct {
	Stage     string
	Succeeded bool
	Skipped   bool // Disabled by options; Artifact is the input.
	Artifact  Artifact
	Err       error
	Gaps      []planner.Gap
}

// Stage is one independently-failable transformation. Implementations must
// contain their own failures and never return without an artifact.
type Stage interface {
	Name() string
	Optimize(ctx context.Context, in Artifact, ws *Workspace, plan *planner.Plan) StageOutcome
}

// NewStages returns the four stages in their fixed order. Later stages
// re-serialize the whole document, so they run on already-reduced content.
func NewStages(docs codec.DocumentCodec, images codec.ImageCodec, log Logger) []Stage {
	return []Stage{
		&MetadataStrip{docs: docs, log: log},
		&ImageRecompress{docs: docs, images: images, log: log},
		&QualityReduce{docs: docs, log: log},
		&PageOptimize{docs: docs, log: log},
	}
}

func skipped(stage string, in Artifact) StageOutcome {
	return StageOutcome{Stage: stage, Succeeded: true, Skipped: true, Artifact: in}
}

// contained logs err and returns the input as the stage output.
func contained(log Logger, stage string, in Artifact, err error, gaps ...planner.Gap) StageOutcome {
	log.Warn("%s failed, passing input through: %v", stage, err)
	return StageOutcome{Stage: stage, Artifact: in, Err: err, Gaps: gaps}
}

// rewrite loads in, lets edit mutate the document, saves it with opts and
// stores the result as the stage's artifact.
func rewrite(
	ctx context.Context,
	docs codec.DocumentCodec,
	ws *Workspace,
	stage string,
	in Artifact,
	opts codec.EncodeOptions,
	edit func(codec.Document) error,
) (Artifact, error) {
	data, err := in.ReadAll()
	if err != nil {
		return Artifact{}, err
	}
	doc, err := docs.Load(ctx, data)
	if err != nil {
		return Artifact{}, err
	}
	defer doc.Close()

	if edit != nil {
		if err := edit(doc); err != nil {
			return Artifact{}, err
		}
	}
	out, err := docs.Save(ctx, doc, opts)
	if err != nil {
		return Artifact{}, err
	}
	art, err := ws.Write(stage, out)
	if err != nil {
		return Artifact{}, fmt.Errorf("store %s output: %w", stage, err)
	}
	return art, nil
}
