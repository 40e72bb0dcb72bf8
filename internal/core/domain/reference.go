package domain

import (
	"regexp"
	"strings"
)

// CanonicalKey is the single normalised URL used as the unique
// identity of a cached document. Two inputs denoting the same external
// resource must normalise to byte-identical keys.
type CanonicalKey string

// SourceType classifies a reference and selects the fetch adapter
// responsible for its content. The classification is pure; it never
// dispatches anything itself.
type SourceType string

const (
	// SourceWebPage is any plain web page.
	SourceWebPage SourceType = "webpage"
	// SourceGithub is a repository README.
	SourceGithub SourceType = "github"
	// SourceGithubNotebook is a notebook file inside a repository.
	SourceGithubNotebook SourceType = "github-notebook"
	// SourceArxiv is an arXiv paper abstract page.
	SourceArxiv SourceType = "arxiv"
	// SourceYoutube is a video whose transcript is summarised.
	SourceYoutube SourceType = "youtube"
	// SourceReddit is a forum thread.
	SourceReddit SourceType = "reddit"
	// SourceHuggingface is a model card.
	SourceHuggingface SourceType = "huggingface"
)

var (
	// Bare short-form arXiv identifier, e.g. "2401.12345" or
	// "arxiv:2401.12345v2".
	bareArxivRe = regexp.MustCompile(`^(?:arxiv:)?(\d{4}\.\d{4,5})(v\d+)?$`)

	// arXiv identifier embedded in an abs/pdf/html URL, with or
	// without a version suffix or trailing ".pdf".
	arxivIDRe = regexp.MustCompile(`arxiv\.org/(?:abs|pdf|html)/(\d{4}\.\d{4,5})`)

	youtubeRe     = regexp.MustCompile(`^https?://(www\.)?(youtube\.com|youtu\.be|youtube-nocookie\.com)/`)
	huggingfaceRe = regexp.MustCompile(`^https?://huggingface\.co/[^/]+/[^/]+`)
)

// Normalise canonicalises a raw reference into its CanonicalKey and
// source classification. It is total over non-empty input: anything it
// cannot recognise becomes a scheme-normalised generic web page. Only
// an empty (or all-whitespace) reference is rejected.
func Normalise(raw string) (CanonicalKey, SourceType, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return "", "", ErrInvalidReference
	}

	// Bare paper ids expand to the canonical abstract page before any
	// URL handling.
	if m := bareArxivRe.FindStringSubmatch(strings.ToLower(ref)); m != nil {
		return CanonicalKey("https://arxiv.org/abs/" + m[1]), SourceArxiv, nil
	}

	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		ref = "https://" + ref
	}

	switch {
	case strings.Contains(ref, "arxiv.org"):
		// Collapse abs/pdf/html variants and version suffixes to the
		// abstract page.
		if m := arxivIDRe.FindStringSubmatch(ref); m != nil {
			return CanonicalKey("https://arxiv.org/abs/" + m[1]), SourceArxiv, nil
		}
		return CanonicalKey(ref), SourceArxiv, nil

	case strings.Contains(ref, "github.com"):
		key := strings.TrimRight(ref, "/")
		if strings.Contains(key, ".ipynb") {
			return CanonicalKey(key), SourceGithubNotebook, nil
		}
		key = strings.TrimSuffix(key, ".git")
		return CanonicalKey(key), SourceGithub, nil

	case youtubeRe.MatchString(ref):
		return CanonicalKey(ref), SourceYoutube, nil

	case strings.Contains(ref, "reddit.com"):
		return CanonicalKey(ref), SourceReddit, nil

	case huggingfaceRe.MatchString(ref):
		return CanonicalKey(ref), SourceHuggingface, nil

	default:
		return CanonicalKey(ref), SourceWebPage, nil
	}
}
