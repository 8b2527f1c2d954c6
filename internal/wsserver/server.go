// Package wsserver exposes the dispatcher's command surface over a
// gorilla/websocket connection: JSON-framed command requests, binary-
// framed envelope responses, one connection per open project.
package wsserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"terrainops/internal/brush"
	"terrainops/internal/config"
	"terrainops/internal/depth"
	"terrainops/internal/dispatcher"
	"terrainops/internal/erosion/hydraulic"
	"terrainops/internal/erosion/thermal"
	"terrainops/internal/errs"
	"terrainops/internal/mask"
	"terrainops/internal/noise"
	"terrainops/internal/project"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn wraps a websocket connection with the write mutex gorilla/
// websocket requires: it permits one concurrent reader and one
// concurrent writer, but the progress-streaming goroutine and the
// request/response loop both write to the same connection, so every
// write goes through mu.
type wsConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *wsConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(messageType, data)
}

// Server wires a Dispatcher to a single /ws endpoint. Requests that
// omit noise/thermal/hydraulic fields fall back to cfg's presets.
type Server struct {
	d      *dispatcher.Dispatcher
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Server over d, logging through logger. cfg may be nil,
// in which case every request must supply its own full parameters.
func New(d *dispatcher.Dispatcher, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{d: d, cfg: cfg, logger: logger}
}

// Handler returns the net/http handler to mount at e.g. "/ws".
func (s *Server) Handler() http.HandlerFunc {
	return s.handleWebSocket
}

// command is the JSON envelope every inbound request is framed in.
type command struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

type commandError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	c := &wsConn{ws: ws}

	for {
		var cmd command
		if err := ws.ReadJSON(&cmd); err != nil {
			s.logger.Debug("websocket read ended", "error", err)
			return
		}

		if err := s.dispatch(c, cmd); err != nil {
			s.writeError(c, err)
		}
	}
}

func (s *Server) dispatch(conn *wsConn, cmd command) error {
	switch cmd.Op {
	case "get_heightmap":
		return conn.WriteMessage(websocket.BinaryMessage, s.d.GetHeightmap())

	case "apply_brush_stroke":
		var stroke brush.Stroke
		if err := json.Unmarshal(cmd.Payload, &stroke); err != nil {
			return errs.Decodef(err, "decode brush stroke payload")
		}
		return conn.WriteMessage(websocket.BinaryMessage, s.d.ApplyBrushStroke(stroke))

	case "generate_terrain":
		p := s.noiseDefaults()
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return errs.Decodef(err, "decode noise params payload")
		}
		buf, err := s.d.GenerateTerrain(p)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, buf)

	case "run_thermal_erosion":
		p := s.thermalDefaults()
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return errs.Decodef(err, "decode thermal params payload")
		}
		return conn.WriteMessage(websocket.BinaryMessage, s.d.RunThermalErosion(p))

	case "run_hydraulic_erosion":
		req := struct {
			Params hydraulic.Params `json:"params"`
			Seed   int64            `json:"seed"`
		}{Params: s.hydraulicDefaults()}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode hydraulic params payload")
		}
		progress := make(chan float64, 16)
		if err := s.d.RunHydraulicErosion(req.Params, req.Seed, progress); err != nil {
			return err
		}
		go s.streamProgress(conn, progress)
		return conn.WriteJSON(map[string]any{"ack": "run_hydraulic_erosion"})

	case "abort_erosion":
		s.d.AbortErosion()
		return conn.WriteJSON(map[string]any{"ack": "abort_erosion"})

	case "apply_depth_with_mask":
		var req struct {
			Depth   []float32 `json:"depth"`
			Weights []float32 `json:"weights"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode depth blend payload")
		}
		buf, err := s.d.ApplyDepthWithMask(req.Depth, req.Weights)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, buf)

	case "set_heightmap":
		var req struct {
			Data []float32 `json:"data"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode set_heightmap payload")
		}
		if err := s.d.SetHeightmap(req.Data); err != nil {
			return err
		}
		return conn.WriteJSON(map[string]any{"ack": "set_heightmap"})

	case "save_project":
		var req struct {
			Path       string `json:"path"`
			AppVersion string `json:"app_version"`
			Texture    []byte `json:"texture"`
			Settings   string `json:"settings"`
			CreatedAt  int64  `json:"created_at"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode save_project payload")
		}
		f, err := os.Create(req.Path)
		if err != nil {
			return errs.IOErrorf(err, "create project archive %s", req.Path)
		}
		defer f.Close()
		if err := s.d.SaveProject(f, req.AppVersion, req.Texture, req.Settings, req.CreatedAt); err != nil {
			return err
		}
		return conn.WriteJSON(map[string]any{"ack": "save_project"})

	case "load_project":
		var req struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode load_project payload")
		}
		f, err := os.Open(req.Path)
		if err != nil {
			return errs.IOErrorf(err, "open project archive %s", req.Path)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return errs.IOErrorf(err, "stat project archive %s", req.Path)
		}
		p, err := s.d.LoadProject(f, info.Size())
		if err != nil {
			return err
		}
		return conn.WriteJSON(map[string]any{
			"width":    p.Manifest.Width,
			"height":   p.Manifest.Height,
			"texture":  p.Texture,
			"settings": p.Settings,
		})

	case "export_heightmap":
		var req struct {
			Format string `json:"format"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode export_heightmap payload")
		}
		buf, err := s.d.ExportHeightmap(project.ExportFormat(req.Format))
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, buf)

	case "run_depth_estimation":
		var req struct {
			Image  []byte `json:"image"`
			Mask   []byte `json:"mask"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode run_depth_estimation payload")
		}
		depthField, err := depth.EstimateDepth(s.depthConfig(), req.Image, req.Width, req.Height)
		if err != nil {
			return err
		}
		var weights []float32
		if req.Mask != nil {
			weights, err = mask.Decode(req.Mask, req.Width, req.Height)
			if err != nil {
				return err
			}
		}
		buf, err := s.d.ApplyDepthWithMask(depthField, weights)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, buf)

	case "run_inpainting":
		var req struct {
			Image  []byte `json:"image"`
			Mask   []byte `json:"mask"`
			Prompt string `json:"prompt"`
			Mode   string `json:"mode"`
		}
		if err := json.Unmarshal(cmd.Payload, &req); err != nil {
			return errs.Decodef(err, "decode run_inpainting payload")
		}
		result, err := depth.Inpaint(s.depthConfig(), req.Image, req.Mask, req.Prompt, req.Mode)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.BinaryMessage, result)

	default:
		return errs.Validationf("unknown command %q", cmd.Op)
	}
}

// streamProgress forwards hydraulic progress samples to the client as
// JSON frames; a write failure (client gone) simply ends the stream.
func (s *Server) streamProgress(conn *wsConn, progress <-chan float64) {
	for p := range progress {
		if err := conn.WriteJSON(map[string]any{"progress": p}); err != nil {
			return
		}
		if p >= 1.0 {
			return
		}
	}
}

func (s *Server) writeError(conn *wsConn, err error) {
	kind := string(errs.KindOf(err))
	if kind == "" {
		kind = "io"
	}
	_ = conn.WriteJSON(commandError{Kind: kind, Message: err.Error()})
}

func (s *Server) noiseDefaults() noise.Params {
	if s.cfg == nil {
		return noise.Params{}
	}
	return s.cfg.Noise.ToParams()
}

func (s *Server) thermalDefaults() thermal.Params {
	if s.cfg == nil {
		return thermal.Params{}
	}
	return s.cfg.Thermal.ToParams()
}

func (s *Server) hydraulicDefaults() hydraulic.Params {
	if s.cfg == nil {
		return hydraulic.Params{}
	}
	return s.cfg.Hydraulic.ToParams()
}

func (s *Server) depthConfig() depth.Config {
	if s.cfg == nil {
		return depth.Config{}
	}
	return depth.Config{
		PythonBin:     s.cfg.Depth.PythonBin,
		DepthScript:   s.cfg.Depth.DepthScript,
		InpaintScript: s.cfg.Depth.InpaintScript,
	}
}
