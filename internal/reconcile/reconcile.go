// Package reconcile repairs denormalized counters out of band. Several
// write paths recompute counts from a fresh read inside the mutating batch,
// so concurrent writers can under- or over-count; this job walks the
// primary records, recounts the backing indexes, and rewrites any counter
// that drifted.
package reconcile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"yappin/pkg/config"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
)

type Manager struct {
	db      *treedb.Store
	cfg     config.ReconcileConfig
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	mutex   sync.Mutex
}

// Start launches the cron loop. It returns a cancel func; when the config
// disables reconciliation the cancel is a no-op.
func Start(ctx context.Context, db *treedb.Store, cfg config.ReconcileConfig) *Manager {
	ctx2, cancel := context.WithCancel(ctx)
	m := &Manager{db: db, cfg: cfg, ctx: ctx2, cancel: cancel}
	if !cfg.Enabled {
		logger.Info("reconcile_disabled")
		return m
	}
	logger.Info("reconcile_enabled", "cron", cfg.Cron)
	go m.scheduleLoop()
	return m
}

func (m *Manager) Stop() { m.cancel() }

func (m *Manager) scheduleLoop() {
	for {
		next, err := gronx.NextTickAfter(m.cfg.Cron, time.Now(), false)
		if err != nil {
			logger.Error("reconcile_nexttick_failed", "cron", m.cfg.Cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-m.ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			m.runJob()
			select {
			case <-time.After(time.Second):
			case <-m.ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			m.runJob()
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) runJob() {
	m.mutex.Lock()
	if m.running {
		m.mutex.Unlock()
		return
	}
	m.running = true
	m.mutex.Unlock()

	defer func() {
		m.mutex.Lock()
		m.running = false
		m.mutex.Unlock()
	}()

	if err := m.RunOnce(); err != nil {
		logger.Error("reconcile_run_failed", "error", err)
	}
}

// RunOnce performs a full sweep: yap counters, user follow counters, and
// group member counts.
func (m *Manager) RunOnce() error {
	start := time.Now()
	repaired := 0

	n, err := m.reconcileYaps()
	if err != nil {
		return err
	}
	repaired += n

	n, err = m.reconcileUsers()
	if err != nil {
		return err
	}
	repaired += n

	n, err = m.reconcileGroups()
	if err != nil {
		return err
	}
	repaired += n

	logger.Info("reconcile_done", "repaired", repaired, "elapsed", time.Since(start).String())
	return nil
}

func (m *Manager) reconcileYaps() (int, error) {
	kvs, err := m.db.Children(paths.YapsPrefix())
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, kv := range kvs {
		var yap models.Yap
		if err := json.Unmarshal(kv.Value, &yap); err != nil {
			logger.Warn("reconcile_bad_yap", "key", kv.Key, "error", err)
			continue
		}
		likes, err := m.db.CountChildren(paths.LikesPrefix(yap.ID))
		if err != nil {
			return repaired, err
		}
		reyaps, err := m.db.CountChildren(paths.ReyapsPrefix(yap.ID))
		if err != nil {
			return repaired, err
		}
		replies, err := m.db.CountChildren(paths.YapRepliesPrefix(yap.ID))
		if err != nil {
			return repaired, err
		}
		if yap.Likes == likes && yap.Reyaps == reyaps && yap.Replies == replies {
			continue
		}

		var cur models.Yap
		err = m.db.TxnJSON(kv.Key, &cur, func(exists bool) error {
			if !exists {
				return treedb.ErrTxnAbort
			}
			if cur.Likes != likes {
				telemetry.DriftRepaired("likes")
			}
			if cur.Reyaps != reyaps {
				telemetry.DriftRepaired("reyaps")
			}
			if cur.Replies != replies {
				telemetry.DriftRepaired("replies")
			}
			cur.Likes = likes
			cur.Reyaps = reyaps
			cur.Replies = replies
			return nil
		})
		if err != nil {
			return repaired, err
		}
		logger.Debug("reconcile_yap_repaired", "yap", yap.ID,
			"likes", likes, "reyaps", reyaps, "replies", replies)
		repaired++
	}
	return repaired, nil
}

func (m *Manager) reconcileUsers() (int, error) {
	kvs, err := m.db.Children(paths.UsersPrefix())
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, kv := range kvs {
		var u models.User
		if err := json.Unmarshal(kv.Value, &u); err != nil {
			logger.Warn("reconcile_bad_user", "key", kv.Key, "error", err)
			continue
		}
		followers, err := m.db.CountChildren(paths.FollowersPrefix(u.UID))
		if err != nil {
			return repaired, err
		}
		following, err := m.db.CountChildren(paths.FollowingPrefix(u.UID))
		if err != nil {
			return repaired, err
		}
		if u.FollowersCount == followers && u.FollowingCount == following {
			continue
		}

		var cur models.User
		err = m.db.TxnJSON(kv.Key, &cur, func(exists bool) error {
			if !exists {
				return treedb.ErrTxnAbort
			}
			if cur.FollowersCount != followers {
				telemetry.DriftRepaired("followers")
			}
			if cur.FollowingCount != following {
				telemetry.DriftRepaired("following")
			}
			cur.FollowersCount = followers
			cur.FollowingCount = following
			return nil
		})
		if err != nil {
			return repaired, err
		}
		logger.Debug("reconcile_user_repaired", "uid", u.UID,
			"followers", followers, "following", following)
		repaired++
	}
	return repaired, nil
}

func (m *Manager) reconcileGroups() (int, error) {
	kvs, err := m.db.Children(paths.GroupsPrefix())
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, kv := range kvs {
		var g models.Group
		if err := json.Unmarshal(kv.Value, &g); err != nil {
			logger.Warn("reconcile_bad_group", "key", kv.Key, "error", err)
			continue
		}
		members, err := m.db.CountChildren(paths.GroupMembersPrefix(g.ID))
		if err != nil {
			return repaired, err
		}
		if g.MemberCount == members {
			continue
		}

		var cur models.Group
		err = m.db.TxnJSON(kv.Key, &cur, func(exists bool) error {
			if !exists {
				return treedb.ErrTxnAbort
			}
			telemetry.DriftRepaired("member_count")
			cur.MemberCount = members
			return nil
		})
		if err != nil {
			return repaired, err
		}
		logger.Debug("reconcile_group_repaired", "group", g.ID, "members", members)
		repaired++
	}
	return repaired, nil
}
