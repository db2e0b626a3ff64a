package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vidsnag/internal/dirs"
	"vidsnag/internal/model"
)

// EnvPrefix prefixes every environment variable, e.g. VIDSNAG_MUSIC_DIR.
const EnvPrefix = "VIDSNAG"

// Config keys.
const (
	KeyDLBinary      = "dl_binary"
	KeyFFmpegBinary  = "ffmpeg_binary"
	KeyVideoDir      = "video_dir"
	KeyMusicDir      = "music_dir"
	KeyVerbose       = "verbose"
	KeyJobs          = "jobs"
	KeyQuality       = "quality"
	KeyAudioFormat   = "audio_format"
	KeySearchLimit   = "search_limit"
	KeyCacheTTL      = "cache_ttl"
	KeyRetries       = "retries"
	KeyRateLimit     = "rate_limit"
	KeyEmbedMetadata = "embed_metadata"
)

// persistent flag name -> key
var flagKeys = map[string]string{
	"dl-binary":      KeyDLBinary,
	"ffmpeg-binary":  KeyFFmpegBinary,
	"video-dir":      KeyVideoDir,
	"music-dir":      KeyMusicDir,
	"verbose":        KeyVerbose,
	"jobs":           KeyJobs,
	"cache-ttl":      KeyCacheTTL,
	"retries":        KeyRetries,
	"rate-limit":     KeyRateLimit,
	"embed-metadata": KeyEmbedMetadata,
}

// Setup installs defaults and environment lookup on v.
func Setup(v *viper.Viper) {
	v.SetDefault(KeyJobs, 2)
	v.SetDefault(KeyQuality, string(model.QualityBest))
	v.SetDefault(KeyAudioFormat, string(model.AudioMP3))
	v.SetDefault(KeySearchLimit, 10)
	v.SetDefault(KeyCacheTTL, "30m")
	v.SetDefault(KeyRetries, 2)
	v.SetDefault(KeyRateLimit, 0.0)
	v.SetDefault(KeyEmbedMetadata, true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Init wires the global Viper with a .env file, config paths, env, defaults,
// and the root command's persistent flags.
func Init(root *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	_ = dirs.EnsureAll()

	if cfgDir, err := dirs.ConfigDir(); err == nil {
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	Setup(viper.GetViper())

	for flag, key := range flagKeys {
		if f := root.PersistentFlags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// BindFlags binds command-local flags (flag name -> key) on the global Viper.
// Call it from the running command only, since a key has one flag binding.
func BindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// Options reads runtime options from v. Flag > env > config file > default.
func Options(v *viper.Viper) (model.Options, error) {
	q, err := model.ParseQuality(v.GetString(KeyQuality))
	if err != nil {
		return model.Options{}, fmt.Errorf("%s: %w", KeyQuality, err)
	}
	af, err := model.ParseAudioFormat(v.GetString(KeyAudioFormat))
	if err != nil {
		return model.Options{}, fmt.Errorf("%s: %w", KeyAudioFormat, err)
	}
	ttl, err := duration(v, KeyCacheTTL)
	if err != nil {
		return model.Options{}, err
	}

	jobs := v.GetInt(KeyJobs)
	if jobs <= 0 {
		jobs = 2
	}
	retries := v.GetInt(KeyRetries)
	if retries < 0 {
		retries = 0
	}
	rate := v.GetFloat64(KeyRateLimit)
	if rate < 0 {
		rate = 0
	}

	return model.Options{
		VideoDir:      expandHome(v.GetString(KeyVideoDir)),
		MusicDir:      expandHome(v.GetString(KeyMusicDir)),
		Quality:       q,
		AudioFormat:   af,
		DLBinary:      v.GetString(KeyDLBinary),
		FFmpegBinary:  v.GetString(KeyFFmpegBinary),
		Verbose:       v.GetBool(KeyVerbose),
		Jobs:          jobs,
		SearchLimit:   v.GetInt(KeySearchLimit),
		CacheTTL:      ttl,
		Retries:       retries,
		RateLimit:     rate,
		EmbedMetadata: v.GetBool(KeyEmbedMetadata),
	}, nil
}

// duration accepts Go duration strings ("30m", "0") or whole seconds.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" || raw == "0" {
		return 0, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	var secs int
	if _, err := fmt.Sscanf(raw, "%d", &secs); err == nil && fmt.Sprint(secs) == raw {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + p[1:]
		}
	}
	return p
}
