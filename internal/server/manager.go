package server

import (
	"github.com/packagewjx/app-autoscaler/internal/app"
	"sync"
)

// manager 保存所有已绑定应用。只有增删应用时需要全局锁，应用本身的状态由各自的锁保护
type manager struct {
	mu         sync.RWMutex
	apps       []*app.Application
	byId       map[string]*app.Application
	byResource map[string]*app.Application
}

func newManager() *manager {
	return &manager{
		apps:       make([]*app.Application, 0),
		byId:       make(map[string]*app.Application),
		byResource: make(map[string]*app.Application),
	}
}

// add ID已存在时返回false
func (m *manager) add(a *app.Application) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byId[a.Id()]; ok {
		return false
	}
	m.apps = append(m.apps, a)
	m.byId[a.Id()] = a
	// 同一资源被多次绑定时，数据交给最早的绑定
	if _, ok := m.byResource[a.ResourceId()]; !ok {
		m.byResource[a.ResourceId()] = a
	}
	return true
}

func (m *manager) remove(id string) *app.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byId[id]
	if !ok {
		return nil
	}
	delete(m.byId, id)
	for i, candidate := range m.apps {
		if candidate == a {
			m.apps = append(m.apps[:i], m.apps[i+1:]...)
			break
		}
	}
	if m.byResource[a.ResourceId()] == a {
		delete(m.byResource, a.ResourceId())
		for _, candidate := range m.apps {
			if candidate.ResourceId() == a.ResourceId() {
				m.byResource[a.ResourceId()] = candidate
				break
			}
		}
	}
	return a
}

func (m *manager) get(id string) *app.Application {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byId[id]
}

func (m *manager) getByResourceId(resourceId string) *app.Application {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byResource[resourceId]
}

// Applications 返回当前所有应用的浅拷贝，按绑定顺序排列
func (m *manager) Applications() []*app.Application {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*app.Application, len(m.apps))
	copy(result, m.apps)
	return result
}

func (m *manager) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.apps)
}
