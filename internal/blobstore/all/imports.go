// Package all wires every built-in blobstore backend into the factory.
//
// It exists purely for side effects: blank-importing it runs the init
// functions of each concrete backend, which register their factories with
// the blobstore package. After importing it, the following store kinds are
// available at runtime:
//
//   - "fs"  (internal/blobstore/fs)
//   - "gcs" (internal/blobstore/gcs)
package all

import (
	_ "github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore/fs"
	_ "github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore/gcs"
)
