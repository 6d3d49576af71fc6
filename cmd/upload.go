package main

import (
	"context"
	"fmt"
	"io"

	"glampdata/internal/batch"
	"glampdata/internal/storage"
)

// uploadArtifacts copies report files to the configured bucket under the
// run's key prefix.
func uploadArtifacts(ctx context.Context, w io.Writer, run *batch.Run, paths ...string) error {
	if !cfg.S3.Enabled() {
		return fmt.Errorf("--upload needs GLAMP_S3_BUCKET, GLAMP_S3_ACCESS_KEY and GLAMP_S3_SECRET_KEY")
	}
	up, err := storage.NewS3Uploader(ctx, cfg.S3)
	if err != nil {
		return err
	}
	for _, p := range paths {
		u, err := up.Upload(ctx, storage.ReportKey(run.ID, p), p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  ☁ Uploaded %s\n", u)
	}
	return nil
}
