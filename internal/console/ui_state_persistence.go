package console

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type uiStateData struct {
	LastPlanFile string `json:"last_plan_file,omitempty"`
	Mode         UIMode `json:"mode,omitempty"`
}

// UIStatePersistence remembers the last plan file and screen between runs
type UIStatePersistence struct {
	filePath string
	logger   *log.Logger

	mu   sync.Mutex
	data uiStateData
}

// NewUIStatePersistence loads filePath. A missing or unreadable file starts empty.
func NewUIStatePersistence(filePath string, logger *log.Logger) *UIStatePersistence {
	if logger == nil {
		panic("UIStatePersistence: logger cannot be nil")
	}
	p := &UIStatePersistence{
		filePath: filePath,
		logger:   logger,
	}
	p.load()
	return p
}

// LastPlanFile returns the plan file used by the previous run, if any
func (p *UIStatePersistence) LastPlanFile() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastPlanFile
}

func (p *UIStatePersistence) SetLastPlanFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastPlanFile == path {
		return
	}
	p.data.LastPlanFile = path
	p.saveLocked()
}

// Mode returns the remembered screen, UIModeSession when none was saved
func (p *UIStatePersistence) Mode() UIMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := GetUIModeInfo(p.data.Mode); !ok {
		return UIModeSession
	}
	return p.data.Mode
}

func (p *UIStatePersistence) SetMode(mode UIMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.Mode == mode {
		return
	}
	p.data.Mode = mode
	p.saveLocked()
}

func (p *UIStatePersistence) load() {
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIStatePersistence: load %s (no existing file)", p.filePath)
		return
	}
	var data uiStateData
	if err := json.Unmarshal(raw, &data); err != nil {
		p.logger.Printf("UIStatePersistence: load %s failed to parse: %v", p.filePath, err)
		return
	}
	p.data = data
}

func (p *UIStatePersistence) saveLocked() {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIStatePersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIStatePersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIStatePersistence: save %s failed: %v", p.filePath, err)
	}
}
