package restserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chrissnell/weatherlink/internal/storage"
	"github.com/chrissnell/weatherlink/pkg/derived"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

type stationSummary struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Reported bool   `json:"reported"`
}

// ListStations handles GET /stations
func (c *Controller) ListStations(w http.ResponseWriter, req *http.Request) {
	stations := make([]stationSummary, 0, len(c.Devices))
	for _, d := range c.Devices {
		_, err := c.readings.Latest(req.Context(), d.Name)
		stations = append(stations, stationSummary{Name: d.Name, Type: d.Type, Reported: err == nil})
	}
	c.write(w, req, http.StatusOK, stations)
}

// GetStationLatest handles GET /stations/{name}/latest
func (c *Controller) GetStationLatest(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if !c.stationExists(name) {
		c.writeError(w, req, http.StatusNotFound, "unknown station "+name)
		return
	}

	reading, err := c.readings.Latest(req.Context(), name)
	if err != nil {
		c.logger.Debugf("no latest reading for %s: %v", name, err)
		c.writeError(w, req, http.StatusNotFound, "no reading from station "+name+" yet")
		return
	}
	c.write(w, req, http.StatusOK, reading)
}

// Derive handles POST /derive. The body is one primitive record; the
// response holds every value derivable from it.
func (c *Controller) Derive(w http.ResponseWriter, req *http.Request) {
	var record derived.Record
	if !c.decode(w, req, &record) {
		return
	}
	c.write(w, req, http.StatusOK, derived.CalculateAll(record))
}

// WindAverage handles POST /wind-average. The body is a chronological array
// of primitive records.
func (c *Controller) WindAverage(w http.ResponseWriter, req *http.Request) {
	var records []derived.Record
	if !c.decode(w, req, &records) {
		return
	}

	samples := make([]derived.WindSample, len(records))
	for i, r := range records {
		samples[i] = r.WindSample()
	}
	c.write(w, req, http.StatusOK, derived.TenMinuteWindAverage(samples))
}

// GetHealth handles GET /health. It answers 503 when any storage backend
// last reported itself unhealthy.
func (c *Controller) GetHealth(w http.ResponseWriter, req *http.Request) {
	all := c.health.GetAllHealth()

	status := http.StatusOK
	for _, h := range all {
		if h.Status != storage.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
	}
	c.write(w, req, status, map[string]any{"storage": all})
}

func (c *Controller) decode(w http.ResponseWriter, req *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.writeError(w, req, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		c.writeError(w, req, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (c *Controller) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := c.formatter.WriteResponse(w, req, status, data); err != nil {
		c.logger.Errorf("error writing response to %s: %v", req.URL.Path, err)
	}
}

func (c *Controller) writeError(w http.ResponseWriter, req *http.Request, status int, message string) {
	if err := c.formatter.WriteError(w, req, status, message); err != nil {
		c.logger.Errorf("error writing response to %s: %v", req.URL.Path, err)
	}
}
