package metrics

import (
	"errors"
	"net/http"

	"github.com/arl/statsviz"
)

// Serve 启动 statsviz，页面地址 http://<addr>/debug/statsviz/
func Serve(addr string) error {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return err
	}
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
