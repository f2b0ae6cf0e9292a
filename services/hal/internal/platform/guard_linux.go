//go:build linux && !tinygo

package platform

import "golang.org/x/sys/unix"

// threadBoost switches the calling thread to SCHED_FIFO and back. Failures
// (typically EPERM without CAP_SYS_NICE) leave the thread unchanged.
type threadBoost struct {
	tid   int
	saved *unix.SchedAttr
}

func (b *threadBoost) raise(prio int) {
	tid := unix.Gettid()
	saved, err := unix.SchedGetAttr(tid, 0)
	if err != nil {
		return
	}
	attr := *saved
	attr.Size = unix.SizeofSchedAttr
	attr.Policy = unix.SCHED_FIFO
	attr.Priority = uint32(prio)
	attr.Nice = 0
	if err := unix.SchedSetAttr(tid, &attr, 0); err != nil {
		return
	}
	b.tid, b.saved = tid, saved
}

func (b *threadBoost) restore() {
	if b.saved == nil {
		return
	}
	_ = unix.SchedSetAttr(b.tid, b.saved, 0)
	b.tid, b.saved = 0, nil
}
