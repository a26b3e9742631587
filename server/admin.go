package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 提供运行参数的读取与更新（热更新调节器与会话参数）
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段
func HandleAdminConfig(room *Room) http.HandlerFunc {
	type cfg struct {
		QueueMin             *int   `json:"queueMin,omitempty"`
		QueueMax             *int   `json:"queueMax,omitempty"`
		SessionTimeoutMs     *int64 `json:"sessionTimeoutMs,omitempty"`
		JoinReplyCopies      *int   `json:"joinReplyCopies,omitempty"`
		RejectShortDatagrams *bool  `json:"rejectShortDatagrams,omitempty"`
		SpectatorEvery       *int   `json:"spectatorEvery,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(room.Tuning())
			return
		case http.MethodPost:
			var body cfg
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			t := room.Tuning()
			if body.QueueMin != nil {
				t.QueueMin = *body.QueueMin
			}
			if body.QueueMax != nil {
				t.QueueMax = *body.QueueMax
			}
			if body.SessionTimeoutMs != nil {
				t.SessionTimeoutMs = *body.SessionTimeoutMs
			}
			if body.JoinReplyCopies != nil {
				t.JoinReplyCopies = *body.JoinReplyCopies
			}
			if body.RejectShortDatagrams != nil {
				t.RejectShortDatagrams = *body.RejectShortDatagrams
			}
			if body.SpectatorEvery != nil {
				t.SpectatorEvery = *body.SpectatorEvery
			}
			if err := room.SetTuning(t); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
			Log.Infof("config updated: queue=[%d,%d] target=%d timeout=%dms joinCopies=%d rejectShort=%v spectatorEvery=%d",
				t.QueueMin, t.QueueMax, t.Regulator().Target(), t.SessionTimeoutMs, t.JoinReplyCopies, t.RejectShortDatagrams, t.SpectatorEvery)
			return
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
	}
}

// HandleMetrics 输出运行指标与当前比赛状态
// GET /metrics
func HandleMetrics(room *Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"match":   room.Status(),
			"metrics": room.Metrics().Snapshot(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// NewAdminMux 管理、监控与观战接口
func NewAdminMux(room *Room) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", HandleWS(room))
	mux.HandleFunc("/admin/config", HandleAdminConfig(room))
	mux.HandleFunc("/metrics", HandleMetrics(room))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
