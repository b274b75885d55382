package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"flight-planner/internal/config"
	"flight-planner/internal/logging"
	"flight-planner/internal/metrics"
	"flight-planner/planner"
)

const maxBodyBytes = 8 << 20

// flightParams is the JSON form of planner.FlightParameters.
type flightParams struct {
	DroneType      planner.DroneType   `json:"drone_type"`
	ForwardOverlap float64             `json:"forward_overlap"`
	SideOverlap    float64             `json:"side_overlap"`
	AGL            float64             `json:"agl,omitempty"`
	GSD            float64             `json:"gsd,omitempty"`
	ImageInterval  float64             `json:"image_interval,omitempty"`
	RotationAngle  float64             `json:"rotation_angle,omitempty"`
	TakeOffPoint   *[2]float64         `json:"take_off_point,omitempty"` // [lon, lat]
	GimbalAngle    planner.GimbalAngle `json:"gimbal_angle,omitempty"`
	Mode           planner.Mode        `json:"mode,omitempty"`
}

func (p flightParams) toPlanner() planner.FlightParameters {
	fp := planner.FlightParameters{
		ForwardOverlap: p.ForwardOverlap,
		SideOverlap:    p.SideOverlap,
		AGL:            p.AGL,
		GSD:            p.GSD,
		ImageInterval:  p.ImageInterval,
		RotationAngle:  p.RotationAngle,
		DroneType:      p.DroneType,
		GimbalAngle:    p.GimbalAngle,
		Mode:           p.Mode,
	}
	if p.TakeOffPoint != nil {
		pt := orb.Point{p.TakeOffPoint[0], p.TakeOffPoint[1]}
		fp.TakeOffPoint = &pt
	}
	return fp
}

type spacingResponse struct {
	AGL                    float64 `json:"agl"`
	GSD                    float64 `json:"gsd"`
	ForwardPhotoHeight     float64 `json:"forward_photo_height"`
	SidePhotoWidth         float64 `json:"side_photo_width"`
	ForwardOverlapDistance float64 `json:"forward_overlap_distance"`
	SideOverlapDistance    float64 `json:"side_overlap_distance"`
	ForwardSpacing         float64 `json:"forward_spacing"`
	SideSpacing            float64 `json:"side_spacing"`
	GroundSpeed            float64 `json:"ground_speed"`
}

func newSpacingResponse(d planner.DerivedSpacing) spacingResponse {
	return spacingResponse{
		AGL:                    d.AGL,
		GSD:                    d.GSD,
		ForwardPhotoHeight:     d.ForwardPhotoHeight,
		SidePhotoWidth:         d.SidePhotoWidth,
		ForwardOverlapDistance: d.ForwardOverlapDistance,
		SideOverlapDistance:    d.SideOverlapDistance,
		ForwardSpacing:         d.ForwardSpacing,
		SideSpacing:            d.SideSpacing,
		GroundSpeed:            d.GroundSpeed,
	}
}

type statsResponse struct {
	Waypoints       int     `json:"waypoints"`
	Photos          int     `json:"photos"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// flightPlanRequest carries the area, optional extra no-fly zones (both as
// GeoJSON) and the mission parameters.
type flightPlanRequest struct {
	AOI        json.RawMessage `json:"aoi"`
	NoFlyZones json.RawMessage `json:"no_fly_zones,omitempty"`
	Params     flightParams    `json:"params"`
	Name       string          `json:"name,omitempty"` // KML document name
}

type flightPlanResponse struct {
	Spacing    spacingResponse `json:"spacing"`
	Stats      statsResponse   `json:"stats"`
	Flightpath json.RawMessage `json:"flightpath"` // GeoJSON FeatureCollection
}

// server holds what every handler needs. It is read-only after startup.
type server struct {
	cfg     *config.Config
	planner *planner.Planner
	zones   []orb.Polygon
	log     *slog.Logger
	metrics *metrics.Collector
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	cors := func(h http.HandlerFunc) http.HandlerFunc { return corsMiddleware(s.cfg.Server.CORSOrigin, h) }

	mux.HandleFunc("/spacing", cors(s.instrument("spacing", s.spacingHandler)))
	mux.HandleFunc("/flightplan", cors(s.instrument("flightplan", s.flightPlanHandler)))
	mux.HandleFunc("/flightplan.kml", cors(s.instrument("flightplan_kml", s.flightPlanKMLHandler)))
	mux.HandleFunc("/terrain/simplify", cors(s.instrument("terrain_simplify", s.terrainSimplifyHandler)))
	mux.HandleFunc("/health", cors(s.healthHandler))
	if s.cfg.Metrics.Enabled && s.metrics != nil {
		mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}
	return mux
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(origin string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument attaches a request-scoped logger and records metrics for one endpoint.
func (s *server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, log := logging.WithRequestLogger(r.Context(), s.log)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		s.metrics.Observe(endpoint, metrics.OutcomeForStatus(rec.status), elapsed)
		log.Info("request handled",
			slog.String("endpoint", endpoint),
			slog.String("method", r.Method),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", elapsed))
	}
}

func (s *server) spacingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var params flightParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}
	spacing, err := planner.ComputeSpacing(params.toPlanner())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSpacingResponse(spacing))
}

// plan runs the full pipeline shared by the GeoJSON and KML endpoints.
func (s *server) plan(r *http.Request) (flightPlanRequest, planner.DerivedSpacing, []planner.Waypoint, error) {
	var req flightPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, planner.DerivedSpacing{}, nil, err
	}
	if len(req.AOI) == 0 {
		return req, planner.DerivedSpacing{}, nil, fmt.Errorf("%w: aoi is required", planner.ErrInvalidPolygon)
	}
	aoi, err := planner.DecodeAOI(req.AOI)
	if err != nil {
		return req, planner.DerivedSpacing{}, nil, badRequest(err)
	}
	zones := s.zones
	if len(req.NoFlyZones) > 0 {
		extra, err := planner.DecodePolygons(req.NoFlyZones)
		if err != nil {
			return req, planner.DerivedSpacing{}, nil, badRequest(err)
		}
		zones = append(append([]orb.Polygon(nil), s.zones...), extra...)
	}

	params := req.Params.toPlanner()
	spacing, err := planner.ComputeSpacing(params)
	if err != nil {
		return req, spacing, nil, err
	}
	waypoints, err := s.planner.GenerateFlightpath(aoi, spacing, params, zones)
	if err != nil {
		return req, spacing, nil, err
	}
	s.metrics.ObserveWaypoints(len(waypoints))
	return req, spacing, planner.Placemarks(waypoints, spacing), nil
}

func (s *server) flightPlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, spacing, waypoints, err := s.plan(r)
	if err != nil {
		writeError(w, err)
		return
	}
	fc, err := planner.EncodeGeoJSON(waypoints)
	if err != nil {
		writeError(w, err)
		return
	}
	stats := planner.Summarize(waypoints, spacing)
	writeJSON(w, http.StatusOK, flightPlanResponse{
		Spacing: newSpacingResponse(spacing),
		Stats: statsResponse{
			Waypoints:       stats.Waypoints,
			Photos:          stats.Photos,
			DistanceMeters:  stats.DistanceMeters,
			DurationSeconds: stats.EstimatedDuration.Seconds(),
		},
		Flightpath: fc,
	})
}

func (s *server) flightPlanKMLHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, _, waypoints, err := s.plan(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := req.Name
	if name == "" {
		name = "Flight plan"
	}
	var buf bytes.Buffer
	if err := planner.EncodeKML(&buf, name, waypoints); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	_, _ = buf.WriteTo(w)
}

// terrainSimplifyHandler takes a waypoint FeatureCollection carrying sampled
// "elevation" properties. Query parameters: threshold (metres, defaults to the
// configured value), agl and take_off_elevation (set altitudes when agl is given).
func (s *server) terrainSimplifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	threshold, err := floatParam(q.Get("threshold"), s.cfg.Planner.TerrainThresholdM)
	if err != nil {
		writeError(w, err)
		return
	}
	agl, err := floatParam(q.Get("agl"), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	takeOffElevation, err := floatParam(q.Get("take_off_elevation"), 0)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, badRequest(err))
		return
	}
	waypoints, err := planner.DecodeWaypoints(body)
	if err != nil {
		writeError(w, badRequest(err))
		return
	}
	simplified, err := planner.SimplifyTerrainWaypoints(waypoints, threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	if q.Get("agl") != "" {
		if simplified, err = planner.ApplyTerrainAltitude(simplified, agl, takeOffElevation); err != nil {
			writeError(w, err)
			return
		}
	}
	s.log.Debug("terrain path simplified",
		slog.Int("input", len(waypoints)),
		slog.Int("output", len(simplified)),
		slog.Float64("threshold", threshold))

	fc, err := planner.EncodeGeoJSON(simplified)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(fc)
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ready",
		"noFlyZones": len(s.zones),
	})
}

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest(err)
	}
	return v, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, planner.ErrInvalidParameter),
		errors.Is(err, planner.ErrUnknownDroneType):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrInvalidPolygon),
		errors.Is(err, planner.ErrGridTooLarge):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
