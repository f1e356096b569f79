package sampler

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

const steamProcessName = "steam"

var (
	steamHelperNames = map[string]struct{}{
		"steamwebhelper": {},
		"steam":          {},
	}
	emulatorNames = map[string]struct{}{
		"retroarch": {},
		"dolphin":   {},
		"yuzu":      {},
		"pcsx2":     {},
	}
)

type ProcessInfo struct {
	PID  int32
	Name string
}

// ProcessTable lists processes and their direct children.
type ProcessTable interface {
	List(ctx context.Context) ([]ProcessInfo, error)
	Children(ctx context.Context, pid int32) ([]ProcessInfo, error)
}

type psutilTable struct{}

// NewProcessTable returns the host process table backed by gopsutil.
func NewProcessTable() ProcessTable {
	return psutilTable{}
}

func (psutilTable) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return describe(ctx, procs), nil
}

func (psutilTable) Children(ctx context.Context, pid int32) ([]ProcessInfo, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, err
	}
	children, err := proc.ChildrenWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return describe(ctx, children), nil
}

func describe(ctx context.Context, procs []*process.Process) []ProcessInfo {
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Exited between listing and lookup.
			continue
		}
		out = append(out, ProcessInfo{PID: p.Pid, Name: name})
	}
	return out
}

// detectFromProcesses returns the first non-helper descendant of a running
// Steam client, "steam" if Steam has none, the first known emulator, or "".
func detectFromProcesses(ctx context.Context, table ProcessTable) (string, error) {
	procs, err := table.List(ctx)
	if err != nil {
		return "", err
	}

	for _, p := range procs {
		if p.Name != steamProcessName {
			continue
		}
		for _, child := range descendants(ctx, table, p.PID) {
			name := strings.ToLower(child.Name)
			if _, helper := steamHelperNames[name]; !helper {
				return name, nil
			}
		}
		return steamProcessName, nil
	}

	for _, p := range procs {
		name := strings.ToLower(p.Name)
		if _, ok := emulatorNames[name]; ok {
			return name, nil
		}
	}
	return "", nil
}

// descendants walks the tree below root breadth first. Lookup errors prune
// that branch.
func descendants(ctx context.Context, table ProcessTable, root int32) []ProcessInfo {
	var out []ProcessInfo
	seen := map[int32]struct{}{root: {}}
	queue := []int32{root}
	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}
		pid := queue[0]
		queue = queue[1:]
		children, err := table.Children(ctx, pid)
		if err != nil {
			continue
		}
		for _, child := range children {
			if _, ok := seen[child.PID]; ok {
				continue
			}
			seen[child.PID] = struct{}{}
			out = append(out, child)
			queue = append(queue, child.PID)
		}
	}
	return out
}
