package signal

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// leadNamespace scopes UUIDv5 lead ids
var leadNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://galactly.dev/ns/lead"))

// tracking parameters that never identify content
var trackingParams = map[string]struct{}{
	"gclid": {}, "fbclid": {}, "msclkid": {}, "mc_cid": {}, "mc_eid": {}, "mkt_tok": {},
	"ref": {}, "ref_src": {}, "igshid": {}, "si": {},
}

// CanonicalLink lowercases scheme and host, drops fragments, default ports, tracking
// parameters and trailing slashes, and sorts the query
// unparseable or relative links yield ""
func CanonicalLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if p := u.Port(); p != "" && p != "80" && p != "443" {
		host += ":" + p
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if _, drop := trackingParams[lk]; drop || strings.HasPrefix(lk, "utm_") {
			q.Del(k)
		}
	}
	for k := range q {
		sort.Strings(q[k])
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// DedupKey identifies a source item across re-harvests
// canonical link when present, else platform plus a digest of the folded evidence
func DedupKey(link, platform, folded string) string {
	if c := CanonicalLink(link); c != "" {
		return "link:" + c
	}
	sum := sha1.Sum([]byte(folded))
	p := strings.ToLower(strings.TrimSpace(platform))
	return "text:" + p + ":" + hex.EncodeToString(sum[:])
}

// LeadID derives the stable lead id for a dedup key
func LeadID(key string) uuid.UUID {
	return uuid.NewSHA1(leadNamespace, []byte(key))
}
