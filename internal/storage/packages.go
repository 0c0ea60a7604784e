package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/localnerve/blockrelease/internal/registry"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// ErrInvalidName is returned for package file names that cannot be stored.
var ErrInvalidName = errors.New("invalid package file name")

// Package describes a stored package object.
type Package struct {
	// URL is what clients download from.
	URL string
	// Location is the afs URL of the object.
	Location string
	Size     int64
}

// PackageStore writes uploaded packages under
// <base>/<blockId>/<region>/<version>/<filename>.
type PackageStore struct {
	fs        afs.Service
	baseURL   string
	publicURL string
}

// NewPackageStore creates the base location if needed. baseURL is any afs
// URL (file://, mem://, s3://, ...); a plain path is treated as file://.
// publicURL, when set, replaces baseURL in the URLs handed to clients.
func NewPackageStore(ctx context.Context, baseURL, publicURL string) (*PackageStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("package store URL cannot be empty")
	}
	fs := afs.New()
	baseURL = url.Normalize(baseURL, file.Scheme)

	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create package store %s: %w", baseURL, err)
		}
	}

	return &PackageStore{
		fs:        fs,
		baseURL:   baseURL,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Put stores r and reports where it landed and how big it is.
func (p *PackageStore) Put(ctx context.Context, blockID, region, version, filename string, r io.Reader) (*Package, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, ErrInvalidName
	}

	rel := path.Join(blockID, regionSegment(region), version, name)
	location := url.Join(p.baseURL, rel)
	counted := &countingReader{r: r}
	if err := p.fs.Upload(ctx, location, file.DefaultFileOsMode, counted); err != nil {
		return nil, fmt.Errorf("failed to store package %s: %w", location, err)
	}

	public := location
	if p.publicURL != "" {
		public = p.publicURL + "/" + rel
	}
	return &Package{URL: public, Location: location, Size: counted.n}, nil
}

// Delete removes a stored package; a missing object is not an error.
func (p *PackageStore) Delete(ctx context.Context, pkg *Package) error {
	if pkg == nil {
		return nil
	}
	exists, err := p.fs.Exists(ctx, pkg.Location)
	if err != nil || !exists {
		return err
	}
	return p.fs.Delete(ctx, pkg.Location)
}

// Ping verifies the base location is reachable.
func (p *PackageStore) Ping(ctx context.Context) error {
	if _, err := p.fs.Exists(ctx, p.baseURL); err != nil {
		return fmt.Errorf("package store unreachable: %w", err)
	}
	return nil
}

// countingReader tallies what the upload consumed. Not every afs backend
// reports a size on Object (mem:// does not), so this is the size of record.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}

// regionSegment keeps the all-regions sentinel out of object paths.
func regionSegment(region string) string {
	if region == registry.AllRegions {
		return "all"
	}
	return region
}
