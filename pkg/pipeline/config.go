package pipeline

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// EnvPrefix prefixes the environment variables read by [Options.ApplyEnv].
const EnvPrefix = "FLOWMAP_"

// LoadConfig decodes the TOML file at path into options. Unknown keys are
// rejected so typos do not silently fall back to defaults. Defaults are not
// applied; call [Options.ValidateAndSetDefaults] after applying overrides.
func LoadConfig(path string) (Options, error) {
	var o Options
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return o, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return o, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := o.decode(string(data)); err != nil {
		return o, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return o, nil
}

// ParseConfig decodes TOML text into options.
func ParseConfig(text string) (Options, error) {
	var o Options
	if err := o.decode(text); err != nil {
		return o, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config")
	}
	return o, nil
}

func (o *Options) decode(text string) error {
	md, err := toml.Decode(text, o)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides options from FLOWMAP_* variables looked up with
// getenv. Empty variables are ignored.
//
//	FLOWMAP_DATA_DIR, FLOWMAP_ADDR, FLOWMAP_CACHE, FLOWMAP_CACHE_DIR,
//	FLOWMAP_REDIS_URL, FLOWMAP_ICONS, FLOWMAP_LINK_DISTANCE,
//	FLOWMAP_CHARGE_STRENGTH, FLOWMAP_METRICS
func (o *Options) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	str("DATA_DIR", &o.Dataset.Dir)
	str("ADDR", &o.Server.Addr)
	str("CACHE", &o.Cache.Backend)
	str("CACHE_DIR", &o.Cache.Dir)
	str("REDIS_URL", &o.Cache.RedisURL)
	str("ICONS", &o.Render.IconDir)

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"LINK_DISTANCE", &o.Simulation.LinkDistance},
		{"CHARGE_STRENGTH", &o.Simulation.ChargeStrength},
	} {
		v := getenv(EnvPrefix + f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, f.name)
		}
		*f.dst = n
	}

	if v := getenv(EnvPrefix + "METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sMETRICS", EnvPrefix)
		}
		o.Server.Metrics = b
	}
	o.validated = false
	return nil
}
