package stateio

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

const httpTimeoutsMs = 3000
const maxBodyBytes = 64 * 1024

// StartAPI exposes the admin REST surface: the current provisioning
// state, both schemas, and POST endpoints feeding the same config and
// command paths the broker transport uses. Partition changes submitted
// here are persisted and picked up on the next restart.
func (sk *StateIO) StartAPI() error {
	if len(sk.HTTPAddr) == 0 {
		return nil
	}

	router := httprouter.New()
	router.GET("/api/config", sk.apiGetConfig)
	router.GET("/api/schema/config", sk.apiGetConfigSchema)
	router.GET("/api/schema/command", sk.apiGetCommandSchema)
	router.POST("/api/config", sk.apiPostConfig)
	router.POST("/api/command", sk.apiPostCommand)

	httpTimeout := httpTimeoutsMs * time.Millisecond
	server := &http.Server{
		Addr:              sk.HTTPAddr,
		Handler:           router,
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sk.logger.Error("admin api server stopped", "err", err)
		}
	}()

	sk.logger.Info("admin api listening", "addr", sk.HTTPAddr)
	return nil
}

func (sk *StateIO) apiGetConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	am := sk.addressMap()

	found := []int{}
	for slot := uint8(0); slot < 8; slot++ {
		if am.Found.Get(slot) {
			found = append(found, int(slot))
		}
	}

	ioConfig, _ := IoConfigName(sk.partition.OutputStart)

	writeJSON(w, map[string]any{
		"name":           sk.Name,
		"ioConfig":       ioConfig,
		"outputsPerMcp":  sk.partition.OutputsPerDevice,
		"found":          found,
		"minInputIndex":  am.MinInputIndex(),
		"maxInputIndex":  am.MaxInputIndex(),
		"minOutputIndex": am.MinOutputIndex(),
		"maxOutputIndex": am.MaxOutputIndex(),
	})
}

func (sk *StateIO) apiGetConfigSchema(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, buildConfigSchema(sk.addressMap()))
}

func (sk *StateIO) apiGetCommandSchema(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, buildCommandSchema(sk.addressMap()))
}

func (sk *StateIO) apiPostConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sk.apiEnqueue(w, r, sk.EnqueueConfig)
}

func (sk *StateIO) apiPostCommand(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sk.apiEnqueue(w, r, sk.EnqueueCommand)
}

// apiEnqueue hands the body to the run loop; processing happens on the
// next pass, so the response is an accept, not a result.
func (sk *StateIO) apiEnqueue(w http.ResponseWriter, r *http.Request, enqueue func([]byte)) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed reading request body", http.StatusBadRequest)
		return
	}

	if !json.Valid(payload) {
		http.Error(w, "body must be valid JSON", http.StatusBadRequest)
		return
	}

	enqueue(payload)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, doc any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
