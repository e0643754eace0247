//go:build !gcp

package docstore

import (
	"context"
	"fmt"
)

func newGCS(context.Context, GCSConfig) (Backend, error) {
	return nil, fmt.Errorf("gcs storage requires building with -tags gcp")
}
