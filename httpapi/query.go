// Package httpapi implements the query façade (C7): it turns a
// request path into an IPv4 prefix, resolves it against the currently
// published lookup tree, and formats the PAC or debug response.
package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/TimeForANinja/pacserver/ipnet"
	"github.com/TimeForANinja/pacserver/pacache"
	"github.com/TimeForANinja/pacserver/paclookup"
	"go.uber.org/zap"
)

// pacMIMEType is the MIME type proxy-aware clients expect for PAC bodies.
const pacMIMEType = "application/x-ns-proxy-autoconfig"

// debugSeparator delimits the JSON debug header from the rendered PAC body.
const debugSeparator = "\n\n---------------------------------------\n\n"

const octetPattern = `(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`

// partialIP matches 1 to 4 dot-separated octets with no trailing dot,
// e.g. "10", "10.0", "10.0.0", "10.0.0.1".
var partialIP = regexp.MustCompile(`^` + octetPattern + `(\.` + octetPattern + `){0,3}$`)

// Handler serves the PAC query routes.
type Handler struct {
	cache  *pacache.Cache
	logger *zap.Logger
}

// New constructs a query façade handler backed by cache.
func New(cache *pacache.Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cache: cache, logger: logger}
}

// rawRequester is the "raw_requester" field of the debug JSON view.
type rawRequester struct {
	IP   string `json:"ip"`
	CIDR int    `json:"cidr"`
}

// pacView is the "pac" field of the debug JSON view.
type pacView struct {
	IPNet string `json:"ip_net"`
	PAC   string `json:"pac"`
}

// debugView is the full debug JSON response shape.
type debugView struct {
	RawRequester    rawRequester `json:"raw_requester"`
	ParsedRequester string       `json:"parsed_requester"`
	PAC             *pacView     `json:"pac"`
}

// Query handles "/", "/{ip}" and "/{ip}/{len}" with fall-through
// rules. It's registered as a catch-all so the fall-through decisions
// (invalid ip falls to peer address, invalid length falls to the
// octet-count-derived length) can be made in one place instead of
// relying on router-level route matching.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	segments := splitPath(r.URL.Path)

	ip, length, ok := h.resolveQueryTarget(r, segments)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	prefix, err := ipnet.FromDotted(ip, length)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	elem := paclookup.Resolve(h.cache.Tree(), prefix)

	if _, debug := r.URL.Query()["debug"]; debug {
		h.writeDebug(w, ip, length, prefix, elem)
		return
	}

	rendered := ""
	if elem != nil {
		rendered = elem.Rendered
	}
	w.Header().Set("Content-Type", pacMIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rendered))
}

func (h *Handler) writeDebug(w http.ResponseWriter, ip string, length int, prefix ipnet.Prefix, elem *paclookup.Element) {
	view := debugView{
		RawRequester:    rawRequester{IP: ip, CIDR: length},
		ParsedRequester: prefix.String(),
	}
	rendered := ""
	if elem != nil {
		view.PAC = &pacView{IPNet: elem.Prefix().String(), PAC: elem.Template.Name}
		rendered = elem.Rendered
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	body, err := json.Marshal(view)
	if err != nil {
		h.logger.Error("httpapi: failed to marshal debug view", zap.Error(err))
		return
	}
	_, _ = w.Write(body)
	_, _ = w.Write([]byte(debugSeparator))
	_, _ = w.Write([]byte(rendered))
}

// resolveQueryTarget applies the route fall-through rules and returns
// the dotted-quad IP (padded to 4 octets) and prefix length to query.
// ok is false only when even the peer-address fallback can't produce
// a usable remote address.
func (h *Handler) resolveQueryTarget(r *http.Request, segments []string) (ip string, length int, ok bool) {
	switch len(segments) {
	case 0:
		return h.peerTarget(r)

	case 1:
		if !partialIP.MatchString(segments[0]) {
			return h.peerTarget(r)
		}
		full, octets := padOctets(segments[0])
		return full, octets * 8, true

	default:
		lengthVal, err := strconv.Atoi(segments[1])
		if err != nil {
			// "{len}" isn't an integer: fall through to "/{ip}" handling.
			if !partialIP.MatchString(segments[0]) {
				return h.peerTarget(r)
			}
			full, octets := padOctets(segments[0])
			return full, octets * 8, true
		}
		if !partialIP.MatchString(segments[0]) {
			return h.peerTarget(r)
		}
		full, _ := padOctets(segments[0])
		return full, lengthVal, true
	}
}

// peerTarget uses the requesting peer's address as a /32 query.
func (h *Handler) peerTarget(r *http.Request) (string, int, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if net.ParseIP(host) == nil {
		return "", 0, false
	}
	return host, 32, true
}

// splitPath splits a URL path into non-empty segments, e.g.
// "/10.0.0.0/8" -> ["10.0.0.0", "8"], "/" -> [].
func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// padOctets pads a partial dotted-quad (1-4 octets) to a full 4-octet
// address with trailing zero octets, and reports how many octets were
// present in the input.
func padOctets(ip string) (full string, octets int) {
	parts := strings.Split(ip, ".")
	octets = len(parts)
	for len(parts) < 4 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, "."), octets
}
