package cache

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-screener/internal/types"
)

// DefaultKeyPrefix prefixes every key when the engine config names none.
const DefaultKeyPrefix = "argo"

// KeyInput is everything a backtest result depends on.
type KeyInput struct {
	Kind        string
	AssetID     string
	// Params are the resolved strategy parameters, defaults included.
	Params      map[string]float64
	InitialCash float64
	FeeRate     float64
	Start       optional.Option[time.Time]
	End         optional.Option[time.Time]
	Mode        types.SamplingMode
}

// NewKey builds the cache key of in:
//
//	<prefix>:<namespace>:<kind>:<asset>:<hash>
//
// The hash covers the canonical form of in, so parameter map order and time
// zones of the dates do not change the key. Kind and asset stay readable so
// entries can be invalidated by pattern. Colons in the asset id are encoded so
// the key always has the same number of separators as its prefix plus four.
func NewKey(prefix, namespace string, in KeyInput) string {
	return fmt.Sprintf("%s:%s:%s:%s:%016x", prefix, namespace, in.Kind, segmentEncoder.Replace(in.AssetID), xxhash.Sum64String(canonical(in)))
}

var (
	segmentEncoder = strings.NewReplacer("%", "%25", ":", "%3A")
	globEscaper    = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
)

// hashPattern matches the fixed width hash segment of a key.
const hashPattern = "????????????????"

// AssetPattern matches every key of assetID.
func AssetPattern(prefix, assetID string) string {
	return fmt.Sprintf("%s:*:*:%s:%s", escapeGlob(prefix), escapeGlob(segmentEncoder.Replace(assetID)), hashPattern)
}

// KindPattern matches every key of a strategy kind.
func KindPattern(prefix, kind string) string {
	return fmt.Sprintf("%s:*:%s:*:%s", escapeGlob(prefix), escapeGlob(kind), hashPattern)
}

// AllPattern matches every key under prefix.
func AllPattern(prefix string) string {
	return escapeGlob(prefix) + ":*"
}

// escapeGlob quotes the glob metacharacters of a literal. Both path.Match and
// the Redis SCAN MATCH syntax accept backslash escapes.
func escapeGlob(literal string) string {
	return globEscaper.Replace(literal)
}

// Match reports whether key matches the glob pattern. Unlike path.Match a
// star also matches slashes. A malformed pattern matches nothing.
func Match(pattern, key string) bool {
	ok, err := path.Match(strings.ReplaceAll(pattern, "/", "\x00"), strings.ReplaceAll(key, "/", "\x00"))

	return err == nil && ok
}

func canonical(in KeyInput) string {
	names := make([]string, 0, len(in.Params))
	for name := range in.Params {
		names = append(names, name)
	}

	sort.Strings(names)

	params := make([]string, len(names))
	for i, name := range names {
		params[i] = name + "=" + strconv.FormatFloat(in.Params[name], 'g', -1, 64)
	}

	return strings.Join([]string{
		in.Kind,
		in.AssetID,
		strings.Join(params, ","),
		strconv.FormatFloat(in.InitialCash, 'g', -1, 64),
		strconv.FormatFloat(in.FeeRate, 'g', -1, 64),
		formatDate(in.Start),
		formatDate(in.End),
		string(in.Mode),
	}, "|")
}

func formatDate(date optional.Option[time.Time]) string {
	if date.IsNone() {
		return "-"
	}

	return date.Unwrap().UTC().Format(time.RFC3339Nano)
}
