package shader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Cache stores compiled bytecode at <root>/<source stem>/<stage>.spv. An
// artifact is valid only if it is not older than the executable, so a
// rebuilt binary recompiles every shader once.
type Cache struct {
	root       string
	executable string
}

// DefaultCacheRoot is tmp/res/shaders next to the running executable.
func DefaultCacheRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "locate executable")
	}
	return defaultRoot(exe), nil
}

func defaultRoot(exe string) string {
	return filepath.Join(filepath.Dir(exe), "tmp", "res", "shaders")
}

// NewCache uses root, or DefaultCacheRoot when root is empty, and the
// running executable as the staleness reference.
func NewCache(root string) (*Cache, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "locate executable")
	}
	if root == "" {
		root = defaultRoot(exe)
	}
	return NewCacheFor(root, exe), nil
}

// NewCacheFor compares artifacts against the modification time of
// executable instead of the running binary.
func NewCacheFor(root, executable string) *Cache {
	return &Cache{root: root, executable: executable}
}

func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) Dir(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(c.root, stem)
}

func (c *Cache) Path(sourcePath string, stage Stage) string {
	return filepath.Join(c.Dir(sourcePath), stage.String()+".spv")
}

// Load returns the cached bytecode for stage. ok is false when there is no
// artifact or it is older than the executable.
func (c *Cache) Load(sourcePath string, stage Stage) (code []byte, ok bool, err error) {
	path := c.Path(sourcePath, stage)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "stat cached stage %s", path)
	}

	exe, err := os.Stat(c.executable)
	if err != nil {
		return nil, false, errors.Wrapf(err, "stat executable %s", c.executable)
	}
	if info.ModTime().Before(exe.ModTime()) {
		return nil, false, nil
	}

	code, err = os.ReadFile(path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "read cached stage %s", path)
	}
	return code, true, nil
}

// Store writes code for stage, creating the directory on first use.
func (c *Cache) Store(sourcePath string, stage Stage, code []byte) error {
	dir := c.Dir(sourcePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create shader cache %s", dir)
	}
	path := c.Path(sourcePath, stage)
	if err := os.WriteFile(path, code, 0o644); err != nil {
		return errors.Wrapf(err, "write cached stage %s", path)
	}
	return nil
}
