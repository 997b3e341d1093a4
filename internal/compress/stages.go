package compress

import (
	"context"
	"fmt"

	"github.com/ranjanmadhu/pdf-compressor/internal/codec"
	"github.com/ranjanmadhu/pdf-compressor/internal/planner"
)

// MetadataStrip clears the document information dictionary.
type MetadataStrip struct {
	docs codec.DocumentCodec
	log  Logger
}

func (s *MetadataStrip) Name() string { return StageMetadataStrip }

func (s *MetadataStrip) Optimize(ctx context.Context, in Artifact, ws *Workspace, plan *planner.Plan) StageOutcome {
	if !plan.StripMetadata {
		if plan.MetadataGap {
			err := fmt.Errorf("%w: metadata", codec.ErrUnavailable)
			return contained(s.log, s.Name(), in, err, planner.GapMetadata)
		}
		return skipped(s.Name(), in)
	}

	out, err := rewrite(ctx, s.docs, ws, s.Name(), in, codec.EncodeOptions{}, func(doc codec.Document) error {
		for _, f := range codec.InfoFields {
			doc.SetInfo(f, "")
		}
		return nil
	})
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}
	return StageOutcome{Stage: s.Name(), Succeeded: true, Artifact: out}
}

// ImageRecompress re-encodes embedded images at the plan's quality. A
// recompressed image replaces the original only when it is smaller. Any
// image codec failure falls the whole stage back to its input.
type ImageRecompress struct {
	docs   codec.DocumentCodec
	images codec.ImageCodec
	log    Logger
}

func (s *ImageRecompress) Name() string { return StageImageRecompress }

func (s *ImageRecompress) Optimize(ctx context.Context, in Artifact, ws *Workspace, plan *planner.Plan) StageOutcome {
	if !plan.RecompressImages {
		if plan.ImagesGap {
			err := fmt.Errorf("%w: images", codec.ErrUnavailable)
			return contained(s.log, s.Name(), in, err, planner.GapImages)
		}
		return skipped(s.Name(), in)
	}

	data, err := in.ReadAll()
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}
	doc, err := s.docs.Load(ctx, data)
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}
	defer doc.Close()

	imgs, err := doc.Images(ctx)
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}

	replaced := 0
	var before, after int
	for _, img := range imgs {
		out, err := s.images.Recompress(ctx, img.Data, plan.ImageQuality, img.Format)
		if err != nil {
			return contained(s.log, s.Name(), in, fmt.Errorf("image %d/%s: %w", img.Page, img.ID, err))
		}
		if len(out) >= len(img.Data) {
			continue
		}
		if err := doc.ReplaceImage(img, out, codec.TargetFormat(img.Format)); err != nil {
			return contained(s.log, s.Name(), in, err)
		}
		replaced++
		before += len(img.Data)
		after += len(out)
	}
	s.log.Debug("%s: %d of %d images smaller (%d -> %d bytes)", s.Name(), replaced, len(imgs), before, after)

	if replaced == 0 {
		return StageOutcome{Stage: s.Name(), Succeeded: true, Artifact: in}
	}

	saved, err := s.docs.Save(ctx, doc, codec.EncodeOptions{})
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}
	out, err := ws.Write(s.Name(), saved)
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}
	return StageOutcome{Stage: s.Name(), Succeeded: true, Artifact: out}
}

// QualityReduce re-serializes with the preset and object packing for the
// compression level, converting to grayscale when requested and supported.
type QualityReduce struct {
	docs codec.DocumentCodec
	log  Logger
}

func (s *QualityReduce) Name() string { return StageQualityReduce }

func (s *QualityReduce) Optimize(ctx context.Context, in Artifact, ws *Workspace, plan *planner.Plan) StageOutcome {
	var gaps []planner.Gap
	if plan.GrayscaleGap {
		s.log.Warn("%s: grayscale requested but the codec cannot convert color", s.Name())
		gaps = append(gaps, planner.GapGrayscale)
	}

	out, err := rewrite(ctx, s.docs, ws, s.Name(), in, plan.Quality, nil)
	if err != nil {
		return contained(s.log, s.Name(), in, err, gaps...)
	}
	return StageOutcome{Stage: s.Name(), Succeeded: true, Artifact: out, Gaps: gaps}
}

// PageOptimize re-serializes after dropping redundant page structures.
type PageOptimize struct {
	docs codec.DocumentCodec
	log  Logger
}

func (s *PageOptimize) Name() string { return StagePageOptimize }

func (s *PageOptimize) Optimize(ctx context.Context, in Artifact, ws *Workspace, plan *planner.Plan) StageOutcome {
	out, err := rewrite(ctx, s.docs, ws, s.Name(), in, plan.Page, nil)
	if err != nil {
		return contained(s.log, s.Name(), in, err)
	}
	return StageOutcome{Stage: s.Name(), Succeeded: true, Artifact: out}
}
