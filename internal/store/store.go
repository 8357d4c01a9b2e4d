// Package store persists resolved configurations as INI files.
package store

import (
	"bytes"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"mailstack-cli/internal/interfaces"
)

// FileMode is applied to the configuration file and its backups
const FileMode os.FileMode = 0o600

// BackupTimeFormat is the timestamp layout used in backup file names
const BackupTimeFormat = "20060102_150405"

// ErrNotFound is returned when the configuration file does not exist
var ErrNotFound = errors.New("configuration file not found")

var loadOptions = ini.LoadOptions{
	Loose:                   true,
	InsensitiveKeys:         true,
	SkipUnrecognizableLines: true,
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
}

func init() {
	ini.PrettyFormat = false
	ini.PrettyEqual = true
}

// Store reads and writes configuration files
type Store struct {
	fs     afero.Fs
	logger *zap.Logger
	now    func() time.Time
	owner  func() (int, int, error)
}

// New creates a store on the given filesystem
func New(fs afero.Fs, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		fs:     fs,
		logger: logger,
		now:    time.Now,
		owner:  currentOwner,
	}
}

// Exists reports whether path is an existing regular file
func (s *Store) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads path as a flat section/option/raw value mapping. Nothing is
// validated against the schema; unrecognizable lines are skipped.
func (s *Store) Load(path string) (*interfaces.ResolvedConfig, error) {
	f, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := interfaces.NewResolvedConfig()
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		bucket := cfg.AddSection(sec.Name())
		for _, key := range sec.Keys() {
			bucket.Set(key.Name(), key.Value())
		}
	}
	return cfg, nil
}

// Open loads path and returns an accessor interpolating against domain
func (s *Store) Open(path, domain string) (*Accessor, error) {
	f, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}
	return newAccessor(f, domain), nil
}

func (s *Store) loadFile(path string) (*ini.File, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return f, nil
}

// Save writes cfg to path. The content goes to a temporary file in the same
// directory which is synced, restricted to the invoking user and renamed over
// path, so a failure never leaves a half-written file behind.
func (s *Store) Save(path string, cfg *interfaces.ResolvedConfig) error {
	data, err := Encode(cfg, s.now())
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.Wrap(err, "creating temporary file")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrapf(err, "writing %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrapf(err, "syncing %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrapf(err, "closing %s", tmpName)
	}
	if err := s.restrict(tmpName); err != nil {
		cleanup()
		return err
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.Wrapf(err, "replacing %s", path)
	}

	s.logger.Debug("configuration written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// BackupPath returns "<path without extension>_<timestamp>.old"
func BackupPath(path string, now time.Time) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_" + now.Format(BackupTimeFormat) + ".old"
}

// freeBackupPath returns BackupPath, or "<path>_<timestamp>_<n>.old" with
// the first n not already taken
func (s *Store) freeBackupPath(path string, now time.Time) (string, error) {
	dest := BackupPath(path, now)
	base := strings.TrimSuffix(dest, ".old")
	for n := 1; ; n++ {
		taken, err := afero.Exists(s.fs, dest)
		if err != nil {
			return "", errors.Wrapf(err, "checking %s", dest)
		}
		if !taken {
			return dest, nil
		}
		dest = fmt.Sprintf("%s_%d.old", base, n)
	}
}

// Backup copies path to its timestamped backup and returns the backup path.
// An existing backup is never overwritten.
func (s *Store) Backup(path string, now time.Time) (string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errors.Wrapf(ErrNotFound, "%s", path)
		}
		return "", errors.Wrapf(err, "reading %s", path)
	}

	dest, err := s.freeBackupPath(path, now)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(s.fs, dest, data, FileMode); err != nil {
		return "", errors.Wrapf(err, "writing backup %s", dest)
	}
	if err := s.restrict(dest); err != nil {
		return "", err
	}

	s.logger.Info("configuration backed up", zap.String("path", path), zap.String("backup", dest))
	return dest, nil
}

// restrict sets owner read/write only and hands the file to the invoking user
func (s *Store) restrict(path string) error {
	if err := s.fs.Chmod(path, FileMode); err != nil {
		return errors.Wrapf(err, "chmod %s", path)
	}
	uid, gid, err := s.owner()
	if err != nil {
		return errors.Wrap(err, "looking up current user")
	}
	if err := s.fs.Chown(path, uid, gid); err != nil {
		return errors.Wrapf(err, "chown %s", path)
	}
	return nil
}

func currentOwner() (int, int, error) {
	u, err := user.Current()
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "uid %q", u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "gid %q", u.Gid)
	}
	return uid, gid, nil
}

// Encode renders cfg in file form with the generation header
func Encode(cfg *interfaces.ResolvedConfig, now time.Time) ([]byte, error) {
	f, err := toINI(cfg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# This file was automatically generated on %s\n\n", now.Format(time.RFC3339))
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "encoding configuration")
	}
	return buf.Bytes(), nil
}

func toINI(cfg *interfaces.ResolvedConfig) (*ini.File, error) {
	f := ini.Empty(loadOptions)
	for _, name := range cfg.Sections() {
		sec, err := f.NewSection(name)
		if err != nil {
			return nil, errors.Wrapf(err, "section %s", name)
		}
		for _, option := range cfg.Options(name) {
			value, _ := cfg.Get(name, option)
			if _, err := sec.NewKey(option, value); err != nil {
				return nil, errors.Wrapf(err, "option %s.%s", name, option)
			}
		}
	}
	return f, nil
}
