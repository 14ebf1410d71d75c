// Package runs allocates and locates run working areas.
//
// A run directory is named by its creation second (20060102_150405) under
// the configured output root. Allocation is serialized in-process by a mutex
// and across processes by a gofrs/flock lock file, and the directory itself
// is created with os.Mkdir so an existing name surfaces as
// services.ErrRunIDCollision instead of being reused. Run directories are
// never deleted.
package runs
