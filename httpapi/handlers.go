package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"meetway.dev/meetway/geo"
	"meetway.dev/meetway/meet"
	"meetway.dev/meetway/model"
)

type participantRequest struct {
	Label        string   `json:"label"`
	Station      string   `json:"station,omitempty"`
	StartStopID  string   `json:"start_stop_id,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
}

type meetRequest struct {
	Participants []participantRequest `json:"participants"`
	Time         string               `json:"time"` // "HH:MM:SS"
}

func (req *meetRequest) toSpecs() ([]meet.ParticipantSpec, int, error) {
	specs := make([]meet.ParticipantSpec, 0, len(req.Participants))
	for _, p := range req.Participants {
		spec := meet.ParticipantSpec{Label: p.Label, StationQuery: p.Station, ExplicitStopID: p.StartStopID}
		if p.Lat != nil && p.Lon != nil {
			spec.Address = &meet.LatLon{Lat: *p.Lat, Lon: *p.Lon}
		}
		specs = append(specs, spec)
	}

	t0, ok := geo.ParseClock(req.Time)
	if !ok {
		return nil, 0, newBadRequest("time must be HH:MM:SS")
	}
	return specs, t0, nil
}

type stepResponse struct {
	Kind       string  `json:"kind"`
	FromStop   string  `json:"from_stop,omitempty"`
	ToStop     string  `json:"to_stop"`
	Depart     string  `json:"depart"`
	Arrive     string  `json:"arrive"`
	WalkSource string  `json:"walk_source,omitempty"`
	DistanceM  float64 `json:"distance_m,omitempty"`
	TripID     string  `json:"trip_id,omitempty"`
	RouteID    string  `json:"route_id,omitempty"`
	Headsign   string  `json:"headsign,omitempty"`
}

type participantResultResponse struct {
	Label   string         `json:"label"`
	Elapsed int            `json:"elapsed_sec"`
	Arrive  string         `json:"arrive"`
	Path    []stepResponse `json:"path"`
}

type meetResponse struct {
	MeetStop       string                       `json:"meet_stop_id"`
	MeetName       string                       `json:"meet_stop_name"`
	MeetTime       string                       `json:"meet_time"`
	FairnessSec    int                          `json:"fairness_sec"`
	Reason         string                       `json:"reason"`
	CapParticipant string                       `json:"cap_participant,omitempty"`
	Iterations     int                          `json:"iterations"`
	Participants   []participantResultResponse  `json:"participants"`
}

func (s *Server) handleMeet(w http.ResponseWriter, r *http.Request) {
	var req meetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	specs, t0, err := req.toSpecs()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	result, err := meet.FindMeeting(s.Index, specs, meet.SearchOptions{T0: t0, Constants: s.Constants})
	if err != nil {
		writeSearchError(w, err)
		return
	}
	observeSearch("meet", result.Reason.String(), result.Iterations, time.Since(start))

	writeJSON(w, http.StatusOK, meetResponseFrom(result))
}

func meetResponseFrom(result *meet.MeetingResult) meetResponse {
	resp := meetResponse{
		MeetStop:       result.MeetStop,
		MeetName:       result.MeetName,
		MeetTime:       geo.FormatClockHM(result.MeetTime),
		FairnessSec:    result.Fairness,
		Reason:         result.Reason.String(),
		CapParticipant: result.CapParticipant,
		Iterations:     result.Iterations,
	}
	for _, p := range result.Participants {
		resp.Participants = append(resp.Participants, participantResultResponse{
			Label:   p.Label,
			Elapsed: p.Elapsed,
			Arrive:  geo.FormatClockHM(p.Arrive),
			Path:    stepsResponseFrom(p.Path),
		})
	}
	return resp
}

func stepsResponseFrom(steps []model.Step) []stepResponse {
	resp := make([]stepResponse, 0, len(steps))
	for _, step := range steps {
		sr := stepResponse{
			FromStop: step.FromStop,
			ToStop:   step.ToStop,
			Depart:   geo.FormatClockHM(step.Depart),
			Arrive:   geo.FormatClockHM(step.Arrive),
		}
		switch step.Kind {
		case model.StepStart:
			sr.Kind = "START"
		case model.StepWalk:
			sr.Kind = "WALK"
			sr.WalkSource = step.WalkSource.String()
			if step.HasDist {
				sr.DistanceM = step.DistanceM
			}
		case model.StepRide:
			sr.Kind = "RIDE"
			sr.TripID = step.TripID
			sr.RouteID = step.RouteID
			sr.Headsign = step.Headsign
		}
		resp = append(resp, sr)
	}
	return resp
}

type heatmapRequest struct {
	meetRequest
	ProgressEvery int `json:"progress_every,omitempty"`
}

type stopHeatResponse struct {
	StopID         string         `json:"stop_id"`
	StationID      string         `json:"station_id"`
	TotalElapsed   int            `json:"total_elapsed_sec"`
	MaxElapsed     int            `json:"max_elapsed_sec"`
	PerParticipant map[string]int `json:"per_participant_elapsed_sec"`
}

type heatmapResponse struct {
	Reason     string             `json:"reason"`
	Iterations int                `json:"iterations"`
	Stops      []stopHeatResponse `json:"stops"`
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	var req heatmapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	specs, t0, err := req.toSpecs()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	result, err := meet.FindHeatmap(s.Index, specs, meet.HeatmapOptions{
		SearchOptions: meet.SearchOptions{T0: t0, Constants: s.Constants},
		ProgressEvery: req.ProgressEvery,
	})
	if err != nil {
		writeSearchError(w, err)
		return
	}
	observeSearch("heatmap", result.Reason.String(), result.Iterations, time.Since(start))

	resp := heatmapResponse{Reason: result.Reason.String(), Iterations: result.Iterations}
	for _, heat := range result.Stops {
		resp.Stops = append(resp.Stops, stopHeatResponse{
			StopID:         heat.StopID,
			StationID:      heat.StationID,
			TotalElapsed:   heat.TotalElapsed,
			MaxElapsed:     heat.MaxElapsed,
			PerParticipant: heat.PerParticipant,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type stationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleStationSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	resolver := meet.NewResolver(s.Index)
	id, name, err := resolver.ResolveStation(query)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stationResponse{ID: id, Name: name})
}
