package secrets

import (
	"regexp"
	"sort"
	"strings"
)

const maskText = "***"

// Values shorter than this are left alone; masking them would shred
// ordinary output that happens to contain the same characters.
const minMaskableLength = 4

// Masker scrubs known secret values from text before the text reaches logs
// or API responses. Longer values are replaced first so a secret that
// contains another secret doesn't leave fragments behind.
type Masker struct {
	replacer *strings.Replacer
}

// NewMasker builds a masker for the given secret values.
func NewMasker(values []string) *Masker {
	maskable := make([]string, 0, len(values))
	for _, v := range values {
		if len(v) >= minMaskableLength {
			maskable = append(maskable, v)
		}
	}
	sort.Slice(maskable, func(i, j int) bool { return len(maskable[i]) > len(maskable[j]) })

	pairs := make([]string, 0, len(maskable)*2)
	for _, v := range maskable {
		pairs = append(pairs, v, maskText)
	}
	return &Masker{replacer: strings.NewReplacer(pairs...)}
}

// MaskerForResolution builds a masker covering the secret-keyed values of
// a resolved environment.
func MaskerForResolution(res *Resolution) *Masker {
	if res == nil {
		return NewMasker(nil)
	}
	values := make([]string, 0, len(res.SecretKeys))
	for _, key := range res.SecretKeys {
		if value, ok := res.Env[key]; ok && value != "" {
			values = append(values, value)
		}
	}
	return NewMasker(values)
}

// Mask replaces every known secret value in text.
func (m *Masker) Mask(text string) string {
	if m == nil || m.replacer == nil {
		return text
	}
	return m.replacer.Replace(text)
}

// Values shorter than this are fully masked by Preview; two visible runes
// would give away too much of them.
const previewMinLength = 6

// Preview renders a secret value for display: the first two runes
// followed by an ellipsis, enough to recognize which value is stored
// without exposing it.
func Preview(value string) string {
	runes := []rune(value)
	if len(runes) < previewMinLength {
		return maskText
	}
	return string(runes[:2]) + "…"
}

var urlCredentials = regexp.MustCompile(`(https?://)([^/@]+@)([^/]+)`)

// SanitizeURL removes credentials embedded in URLs, turning
// https://token@host/path into https://***@host/path.
func SanitizeURL(url string) string {
	return urlCredentials.ReplaceAllString(url, "${1}"+maskText+"@${3}")
}
