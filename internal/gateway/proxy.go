package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"storefront/pkg/kit"
)

// NewImageProxy serves /images/* from the upstream image host so product
// pictures load from the storefront origin. Client cookies are not forwarded.
func NewImageProxy(target string, log *zap.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("image proxy: bad target %q", target)
	}

	p := httputil.NewSingleHostReverseProxy(u)
	direct := p.Director
	p.Director = func(r *http.Request) {
		direct(r)
		r.Host = u.Host
		r.Header.Del("Cookie")
		r.Header.Del("Authorization")
	}
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("image proxy failed", zap.String("path", r.URL.Path), zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "images unavailable", nil)
	}

	return http.StripPrefix("/images", p), nil
}
