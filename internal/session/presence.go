package session

import (
	"slices"
	"strings"
	"sync"
)

// ViewerList tracks who is watching a session.
type ViewerList struct {
	mu      sync.RWMutex
	viewers map[string]Viewer // clientID -> viewer
}

func NewViewerList() *ViewerList {
	return &ViewerList{
		viewers: make(map[string]Viewer),
	}
}

func (vl *ViewerList) Update(v Viewer) {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	vl.viewers[v.ClientID] = v
}

func (vl *ViewerList) Remove(clientID string) {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	delete(vl.viewers, clientID)
}

func (vl *ViewerList) Len() int {
	vl.mu.RLock()
	defer vl.mu.RUnlock()
	return len(vl.viewers)
}

// GetAll returns the viewers ordered by client id.
func (vl *ViewerList) GetAll() []Viewer {
	vl.mu.RLock()
	defer vl.mu.RUnlock()

	result := make([]Viewer, 0, len(vl.viewers))
	for _, v := range vl.viewers {
		result = append(result, v)
	}
	slices.SortFunc(result, func(a, b Viewer) int { return strings.Compare(a.ClientID, b.ClientID) })
	return result
}
