package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logInfo(r *http.Request, msg string, dur time.Duration) {
	if zlog == nil {
		log.Printf("%s path=%s dur=%s", msg, r.URL.Path, dur)
		return
	}
	z := zlog.Info().Str("path", r.URL.Path).Dur("dur", dur)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(msg)
}

func logWarn(r *http.Request, err error, msg string) {
	if zlog == nil {
		log.Printf("%s path=%s err=%v", msg, r.URL.Path, err)
		return
	}
	z := zlog.Warn().Str("path", r.URL.Path).Err(err)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(msg)
}
