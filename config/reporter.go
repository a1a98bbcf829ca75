package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"ttx/misc"
)

// maxSnapshot limits size of a file StoreCopy keeps in memory.
const maxSnapshot = 64 << 20

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report at configured destination, or in temporary
// directory when destination could not be created.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{items: make(map[string]item), out: f}, nil
}

// item is either a snapshot kept in memory or a path read when report is
// closed.
type item struct {
	source string
	path   string
	stamp  time.Time
	data   []byte
}

func (it item) snapshot() bool {
	return it.data != nil
}

// Report collects pages, logs and configuration of a single run into zip
// archive. Nil report is valid and ignores everything. Not safe for
// concurrent use.
type Report struct {
	items map[string]item
	out   *os.File
}

// Name returns absolute path of the archive.
func (r *Report) Name() string {
	if r == nil || r.out == nil {
		return ""
	}
	name, err := filepath.Abs(r.out.Name())
	if err != nil {
		return r.out.Name()
	}
	return name
}

// Store adds file or directory which will be archived on Close with its
// content at that time. Storing different path under the same name is a
// programming error.
func (r *Report) Store(name, source string) {
	if r == nil {
		return
	}
	if it, ok := r.items[name]; ok && it.source != source {
		panic(fmt.Sprintf("report entry %q is already taken by %s, cannot store %s", name, it.source, source))
	}
	p, err := filepath.Abs(source)
	if err != nil {
		p = source
	}
	r.items[name] = item{source: source, path: p}
}

// StoreData adds data under name. Names could not be reused.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, ok := r.items[name]; ok {
		panic(fmt.Sprintf("report entry %q is already taken", name))
	}
	if data == nil {
		data = []byte{}
	}
	r.items[name] = item{source: "memory", stamp: time.Now(), data: data}
}

// StoreCopy takes snapshot of regular file now, so overwriting it later
// does not change the report. Repeated name gets time stamp suffix.
func (r *Report) StoreCopy(name, source string) error {
	if r == nil {
		return nil
	}
	fi, err := os.Stat(source)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %s into report: not a regular file", source)
	}
	if fi.Size() > maxSnapshot {
		return fmt.Errorf("unable to copy %s into report: file is too large (%d bytes)", source, fi.Size())
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	if _, ok := r.items[name]; ok {
		name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	r.items[name] = item{source: source, stamp: fi.ModTime(), data: data}
	return nil
}

// Close writes archive and closes its file.
func (r *Report) Close() error {
	if r == nil || r.out == nil {
		return nil
	}
	err := r.write(r.out)
	return multierr.Append(err, r.out.Close())
}

// write puts MANIFEST and then every entry in natural name order into
// archive. Paths which disappeared are skipped.
func (r *Report) write(w io.Writer) error {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	now := time.Now()
	manifest := new(bytes.Buffer)
	for _, name := range names {
		it := r.items[name]
		stamp := it.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(manifest, "%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), name, it.source)
	}

	arc := zip.NewWriter(w)
	if err := addEntry(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}
	for _, name := range names {
		it := r.items[name]
		if it.snapshot() {
			if err := addEntry(arc, name, it.stamp, bytes.NewReader(it.data)); err != nil {
				return err
			}
			continue
		}
		if err := addPath(arc, name, it.path); err != nil {
			return err
		}
	}
	return arc.Close()
}

// addPath archives file or directory tree rooted at p under name.
func addPath(arc *zip.Writer, name, p string) error {
	fi, err := os.Stat(p)
	if err != nil {
		return nil
	}
	if fi.Mode().IsRegular() {
		return addFile(arc, name, p, fi.ModTime())
	}
	if !fi.IsDir() {
		return nil
	}
	return filepath.WalkDir(p, func(file string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(p, file)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return addFile(arc, path.Join(name, filepath.ToSlash(rel)), file, info.ModTime())
	})
}

func addFile(arc *zip.Writer, name, file string, stamp time.Time) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return addEntry(arc, name, stamp, f)
}

func addEntry(arc *zip.Writer, name string, stamp time.Time, r io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: stamp})
	if err != nil {
		return fmt.Errorf("unable to add %s to report: %w", name, err)
	}
	_, err = io.Copy(w, r)
	return err
}
