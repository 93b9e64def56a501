package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/DR-lin-eng/yologui/pkg/progress"
	"github.com/DR-lin-eng/yologui/pkg/trainparams"
)

type startRunRequest struct {
	Data    string `json:"data"`
	Task    string `json:"task,omitempty"`
	Model   string `json:"model,omitempty"`
	Epochs  int    `json:"epochs,omitempty"`
	Batch   int    `json:"batch,omitempty"`
	ImgSize int    `json:"imgsz,omitempty"`
	Device  string `json:"device,omitempty"`
	Project string `json:"project,omitempty"`
	Name    string `json:"name,omitempty"`
}

type startRunResponse struct {
	RunID string `json:"run_id"`
}

type runStatusResponse struct {
	RunID    string        `json:"run_id"`
	State    string        `json:"state"`
	Outcome  *outcomeBody  `json:"outcome,omitempty"`
	Snapshot *snapshotBody `json:"snapshot,omitempty"`
}

type outcomeBody struct {
	Kind     string `json:"kind"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

type snapshotBody struct {
	Line         string         `json:"line"`
	CurrentEpoch int            `json:"current_epoch"`
	TotalEpochs  int            `json:"total_epochs"`
	Metrics      map[string]any `json:"metrics"`
	OutputDir    string         `json:"output_dir,omitempty"`
	Percent      *float64       `json:"percent,omitempty"`
	ElapsedSec   float64        `json:"elapsed_seconds"`
	EtaSec       *float64       `json:"eta_seconds,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	params := trainparams.Defaults()
	params.DataPath = req.Data
	if req.Task != "" {
		params.Task = trainparams.Task(req.Task)
	}
	if req.Model != "" {
		params.Model = req.Model
	}
	if req.Epochs > 0 {
		params.Epochs = req.Epochs
	}
	if req.Batch > 0 {
		params.Batch = req.Batch
	}
	if req.ImgSize > 0 {
		params.ImgSize = req.ImgSize
	}
	params.Device = req.Device
	if req.Project != "" {
		params.Project = req.Project
	} else if s.trainer.Project != "" {
		params.Project = s.trainer.Project
	}
	if req.Name != "" {
		params.Name = req.Name
	}

	cmd, err := trainparams.BuildCommand(params, s.trainer.Binary)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	session, err := s.mgr.Start(cmd, params.Epochs)
	if err != nil {
		// A launch failure is terminal for this request; nothing was started.
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("run started via api", zap.String("run_id", session.ID()))
	writeJSON(w, http.StatusCreated, startRunResponse{RunID: session.ID()})
}

func (s *Server) handleCurrentRun(w http.ResponseWriter, _ *http.Request) {
	session := s.mgr.Active()
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no run"})
		return
	}

	resp := runStatusResponse{RunID: session.ID(), State: "running"}
	if out, finished := session.Result(); finished {
		resp.State = out.Kind.String()
		body := outcomeBody{Kind: out.Kind.String(), ExitCode: out.ExitCode}
		if out.Err != nil {
			body.Error = out.Err.Error()
		}
		resp.Outcome = &body
	}
	snap := session.Latest()
	resp.Snapshot = toSnapshotBody(snap)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStopRun(w http.ResponseWriter, _ *http.Request) {
	session := s.mgr.Active()
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no run"})
		return
	}
	session.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": session.ID(), "state": "stopping"})
}

// handleEvents streams progress snapshots as server-sent events until the
// run finishes or the client goes away. The final event is the outcome.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	session := s.mgr.Active()
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no run"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	sub, err := session.Subscribe()
	if err != nil {
		// Session already drained; fall through to the terminal event.
		sub = nil
	} else {
		defer session.Unsubscribe(sub)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if sub != nil {
		for {
			select {
			case snap, ok := <-sub:
				if !ok {
					sub = nil
				} else {
					writeEvent(w, "progress", toSnapshotBody(snap))
					flusher.Flush()
				}
			case <-r.Context().Done():
				return
			}
			if sub == nil {
				break
			}
		}
	}

	select {
	case <-session.Done():
	case <-r.Context().Done():
		return
	}
	out, _ := session.Result()
	body := outcomeBody{Kind: out.Kind.String(), ExitCode: out.ExitCode}
	if out.Err != nil {
		body.Error = out.Err.Error()
	}
	writeEvent(w, "outcome", body)
	flusher.Flush()
}

func toSnapshotBody(snap progress.Snapshot) *snapshotBody {
	body := &snapshotBody{
		Line:         snap.Line,
		CurrentEpoch: snap.CurrentEpoch,
		TotalEpochs:  snap.TotalEpochs,
		Metrics:      snap.Metrics,
		OutputDir:    snap.OutputDir,
		ElapsedSec:   snap.Elapsed.Seconds(),
	}
	if snap.Percent >= 0 {
		p := snap.Percent
		body.Percent = &p
	}
	if snap.ETA != nil {
		eta := snap.ETA.Seconds()
		body.EtaSec = &eta
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
