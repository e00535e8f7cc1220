package environment

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/kbukum/runkit/logger"
)

// configExts are the file extensions probed for config files, in order.
var configExts = []string{"yml", "yaml", "json", "toml"}

// fileLoader reads configuration files into flattened MapSources. Loads are
// cached so profile expansion and source assembly read each file once.
type fileLoader struct {
	settings Settings
	log      *logger.Logger
	cache    map[string]*MapSource
}

func newFileLoader(settings Settings, log *logger.Logger) *fileLoader {
	return &fileLoader{
		settings: settings,
		log:      log,
		cache:    make(map[string]*MapSource),
	}
}

// external returns the source for the first matching file in the configured
// search paths, or nil if no file exists.
func (l *fileLoader) external(base string) *MapSource {
	cacheKey := "file:" + base
	if src, ok := l.cache[cacheKey]; ok {
		return src
	}

	var src *MapSource
	for _, dir := range l.settings.ConfigPaths {
		for _, ext := range configExts {
			path := filepath.Join(dir, base+"."+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			values, err := readConfigFile(path, ext)
			if err != nil {
				l.log.Warn("Failed to read config file", logger.Fields(
					logger.FieldSource, path,
					logger.FieldError, err.Error(),
				))
				continue
			}
			src = NewMapSource("file:"+path, values)
			break
		}
		if src != nil {
			break
		}
	}
	l.cache[cacheKey] = src
	return src
}

// packaged returns the source for a file shipped in the packaged filesystem,
// or nil if there is none.
func (l *fileLoader) packaged(base string) *MapSource {
	cacheKey := "packaged:" + base
	if src, ok := l.cache[cacheKey]; ok {
		return src
	}

	var src *MapSource
	if l.settings.Packaged != nil {
		for _, ext := range configExts {
			name := base + "." + ext
			data, err := fs.ReadFile(l.settings.Packaged, name)
			if err != nil {
				continue
			}
			values, err := readConfigBytes(data, ext)
			if err != nil {
				l.log.Warn("Failed to read packaged config", logger.Fields(
					logger.FieldSource, name,
					logger.FieldError, err.Error(),
				))
				continue
			}
			src = NewMapSource("packaged:"+name, values)
			break
		}
	}
	l.cache[cacheKey] = src
	return src
}

// includesFor collects profiles.include directives from a profile's external
// and packaged documents, external first.
func (l *fileLoader) includesFor(configName, profile string) []string {
	base := configName + "-" + profile
	var includes []string
	if src := l.external(base); src != nil {
		if v, ok := src.Lookup(IncludeProfilesKey); ok {
			includes = append(includes, splitList(v)...)
		}
	}
	if src := l.packaged(base); src != nil {
		if v, ok := src.Lookup(IncludeProfilesKey); ok {
			includes = append(includes, splitList(v)...)
		}
	}
	return dedupeProfiles(includes)
}

func readConfigFile(path, ext string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(ext)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flattenSettings("", v.AllSettings(), out)
	return out, nil
}

func readConfigBytes(data []byte, ext string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigType(ext)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flattenSettings("", v.AllSettings(), out)
	return out, nil
}

// flattenSettings flattens viper's nested settings into dotted string keys.
// Lists become comma-separated values.
func flattenSettings(prefix string, in map[string]any, out map[string]string) {
	for k, val := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch tv := val.(type) {
		case map[string]any:
			flattenSettings(key, tv, out)
		case []any:
			parts := make([]string, len(tv))
			for i, item := range tv {
				parts[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(parts, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(tv)
		}
	}
}
