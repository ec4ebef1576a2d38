package supervisor

import (
	"errors"

	"github.com/shirou/gopsutil/v4/process"
)

// killTree kills every descendant of pid, deepest first, then pid itself.
// On Unix the process group is swept afterwards to catch anything that was
// reparented while the tree was being walked.
func killTree(pid int) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return errors.Join(err, killGroup(pid))
	}
	var errs []error
	for _, p := range descendants(root) {
		if err := p.Kill(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := root.Kill(); err != nil {
		errs = append(errs, err)
	}
	if err := killGroup(pid); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// descendants returns the process tree below p in post-order.
func descendants(p *process.Process) []*process.Process {
	children, err := p.Children()
	if err != nil {
		return nil
	}
	var out []*process.Process
	for _, c := range children {
		out = append(out, descendants(c)...)
		out = append(out, c)
	}
	return out
}
