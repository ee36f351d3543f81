package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/easelhq/easel/backend/internal/board"
	"github.com/easelhq/easel/backend/internal/metrics"
	"github.com/easelhq/easel/backend/internal/store"
)

const saveTimeout = 5 * time.Second

var ErrBoardNotActive = errors.New("board not active")

// Service owns snapshot scheduling: every interval it persists each active
// room that changed since its last save. Durability therefore trails the
// in-memory state by at most one interval, and a failed save is retried on
// the next tick.
type Service struct {
	registry *board.Registry
	bridge   store.Bridge
	interval time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

func New(registry *board.Registry, bridge store.Bridge, interval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		bridge:   bridge,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Info().Dur("interval", s.interval).Msg("snapshot service started")
}

// Stop flushes dirty rooms one last time and waits for the loop to exit.
func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
	s.saveDirtyRooms()
	s.log.Info().Msg("snapshot service stopped")
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.saveDirtyRooms()
		}
	}
}

func (s *Service) saveDirtyRooms() {
	saved := 0
	for _, room := range s.registry.Rooms() {
		elements, dirty := room.DirtySnapshot()
		if !dirty {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := s.bridge.SaveSnapshot(ctx, room.ID, "", elements)
		cancel()

		if err != nil {
			metrics.SnapshotSaves.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Str("board", room.ID).Msg("snapshot save failed, will retry")
			room.MarkDirty()
			continue
		}
		metrics.SnapshotSaves.WithLabelValues("ok").Inc()
		saved++
	}

	if saved > 0 {
		s.log.Debug().Int("boards", saved).Msg("snapshots saved")
	}
}

// SaveNow persists a board's current element list outside the schedule,
// for explicit saves through the management API.
func (s *Service) SaveNow(ctx context.Context, boardID, owner string) (int, error) {
	room, ok := s.registry.Get(boardID)
	if !ok {
		return 0, ErrBoardNotActive
	}

	elements := room.Snapshot()
	if err := s.bridge.SaveSnapshot(ctx, boardID, owner, elements); err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		return 0, err
	}
	room.MarkClean()
	metrics.SnapshotSaves.WithLabelValues("ok").Inc()
	return len(elements), nil
}
