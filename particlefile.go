package postladim

import (
	"github.com/bjornaa/postladim/dataset"
)

// ParticleFile is a ParticleSet opened directly from a LADiM output
// file. Errors from the storage layer (missing file, wrong format)
// propagate unchanged.
type ParticleFile struct {
	*ParticleSet
	Path string
}

// OpenParticleFile opens a netCDF particle file. The caller owns the
// returned file and must Close it.
func OpenParticleFile(path string) (*ParticleFile, error) {
	ds, err := dataset.Open(path)
	if err != nil {
		return nil, err
	}
	ps, err := NewParticleSet(ds)
	if err != nil {
		ds.Close()
		return nil, err
	}
	return &ParticleFile{ParticleSet: ps, Path: path}, nil
}

// WithParticleFile opens the file, runs fn, and closes the file again
// on every exit path. The file must not be retained by fn.
func WithParticleFile(path string, fn func(*ParticleFile) error) error {
	pf, err := OpenParticleFile(path)
	if err != nil {
		return err
	}
	defer pf.Close()
	return fn(pf)
}
