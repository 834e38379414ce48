//go:build linux

package transfer

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// io_uring backend: pure Go, no cgo (the pack's only other io_uring
// reference, other_examples'…tailscale…io_uring_linux.go, links liburing
// via cgo; zigcat stays consistent with the rest of the pack, which never
// uses cgo, by driving the io_uring_setup/io_uring_enter syscalls directly
// through golang.org/x/sys/unix and mmap'ing the submission/completion
// rings ourselves).
//
// Tags (user_data) per spec §4.B: 0 = stdin-readiness (POLL_ADD), 1 =
// socket read, 2 = write (fire-and-forget).
const (
	tagStdinPoll  = 0
	tagSocketRead = 1
	tagWrite      = 2
)

const (
	ioringOpPollAdd = 6
	ioringOpRead    = 22
	ioringOpWrite   = 23

	ioringOffSqRing = 0
	ioringOffCqRing = 0x8000000
	ioringOffSqes   = 0x10000000

	ioringEnterGetEvents = 1 << 0
)

// ioURingAvailable reports whether the running kernel is new enough
// (≥5.1, when io_uring was introduced) for the dispatcher to prefer this
// backend, per spec §4.B priority order.
func ioURingAvailable() bool {
	major, minor, err := kernelVersion()
	if err != nil {
		return false
	}
	return major > 5 || (major == 5 && minor >= 1)
}

func kernelVersion() (major, minor int, err error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return 0, 0, err
	}
	release := cString(uts.Release[:])
	_, err = fmt.Sscanf(release, "%d.%d", &major, &minor)
	return major, minor, err
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// sqOffsets/cqOffsets mirror struct io_sqring_offsets/io_cqring_offsets
// from the kernel ABI (include/uapi/linux/io_uring.h): byte offsets into
// the mmap'd ring where each field lives.
// ringOffsets decodes both io_sqring_offsets and io_cqring_offsets; the
// two kernel structs share their first four fields (head/tail/ring_mask/
// ring_entries) and differ after that (sq has flags/dropped/array, cq has
// overflow/cqes/flags) — callers read only the fields that apply to the
// ring they decoded this from.
type ringOffsets struct {
	head, tail, ringMask, ringEntries uint32
	flags, dropped, array            uint32 // sq-only
	overflow, cqes                   uint32 // cq-only
}

type ioURingParams struct {
	sqEntries, cqEntries uint32
	flags                uint32
	sqThreadCPU          uint32
	sqThreadIdle         uint32
	features             uint32
	wqFd                 uint32
	resv                 [3]uint32
	sqOff                [10]uint32 // raw layout; decoded into ringOffsets below
	cqOff                [10]uint32
}

type ioURing struct {
	ringFd int

	sqRing, cqRing, sqes []byte
	sqOff, cqOff         ringOffsets
	sqEntries            uint32
	sqesPtr              unsafe.Pointer
}

func setupIOURing(entries uint32) (*ioURing, error) {
	var params ioURingParams
	r1, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("io_uring_setup: %w", errno)
	}
	fd := int(r1)

	ring := &ioURing{ringFd: fd, sqEntries: params.sqEntries}

	sqRingSize := params.sqOff[6] + params.sqEntries*4  // array offset + entries*sizeof(uint32)
	cqRingSize := params.cqOff[5] + params.cqEntries*16 // cqes offset + entries*sizeof(cqe)

	sqRing, err := unix.Mmap(fd, ioringOffSqRing, int(sqRingSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap sq ring: %w", err)
	}
	cqRing, err := unix.Mmap(fd, ioringOffCqRing, int(cqRingSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(sqRing)
		unix.Close(fd)
		return nil, fmt.Errorf("mmap cq ring: %w", err)
	}
	sqes, err := unix.Mmap(fd, ioringOffSqes, int(params.sqEntries)*64, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(sqRing)
		unix.Munmap(cqRing)
		unix.Close(fd)
		return nil, fmt.Errorf("mmap sqes: %w", err)
	}

	ring.sqRing, ring.cqRing, ring.sqes = sqRing, cqRing, sqes
	ring.sqOff = decodeOffsets(params.sqOff[:])
	ring.cqOff = decodeOffsets(params.cqOff[:])
	ring.sqesPtr = unsafe.Pointer(&sqes[0])
	return ring, nil
}

func decodeOffsets(raw []uint32) ringOffsets {
	return ringOffsets{
		head: raw[0], tail: raw[1], ringMask: raw[2], ringEntries: raw[3],
		flags: raw[4], dropped: raw[5], array: raw[6],
		overflow: raw[4], cqes: raw[5],
	}
}

func (r *ioURing) close() {
	unix.Munmap(r.sqes)
	unix.Munmap(r.cqRing)
	unix.Munmap(r.sqRing)
	unix.Close(r.ringFd)
}

func (r *ioURing) ptrU32(ring []byte, off uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&ring[off]))
}

// submitPollAdd arms a one-shot POLL_ADD SQE for fd, tagged userData, per
// spec's "Reads are re-armed after each completion (io_uring entries are
// one-shot)".
func (r *ioURing) submitPollAdd(fd int32, userData uint64) error {
	return r.submit(ioringOpPollAdd, fd, 0, 0, userData)
}

func (r *ioURing) submit(opcode uint8, fd int32, addr uint64, length uint32, userData uint64) error {
	tail := atomic.LoadUint32(r.ptrU32(r.sqRing, r.sqOff.tail))
	mask := atomic.LoadUint32(r.ptrU32(r.sqRing, r.sqOff.ringMask))
	idx := tail & mask

	sqe := (*sqeLayout)(unsafe.Pointer(uintptr(r.sqesPtr) + uintptr(idx)*64))
	*sqe = sqeLayout{}
	sqe.opcode = opcode
	sqe.fd = fd
	sqe.addr = addr
	sqe.len = length
	sqe.userData = userData
	if opcode == ioringOpPollAdd {
		sqe.pollEvents = unix.POLLIN
	}

	array := r.ptrU32(r.sqRing, r.sqOff.array)
	*(*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(array)) + uintptr(idx)*4)) = idx
	atomic.StoreUint32(r.ptrU32(r.sqRing, r.sqOff.tail), tail+1)

	_, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(r.ringFd), 1, 0, 0, 0, 0)
	if errno != 0 {
		return fmt.Errorf("io_uring_enter (submit): %w", errno)
	}
	return nil
}

// waitCompletion blocks for at least one completion queue entry, bounded
// by the caller invoking it inside the session's own idle-timeout
// bookkeeping (the kernel-timespec variant of io_uring_enter's timeout
// support is left to the poll backend's simpler model when precise
// per-wait timeouts matter).
func (r *ioURing) waitCompletion() (userData uint64, res int32, err error) {
	_, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER, uintptr(r.ringFd), 0, 1, ioringEnterGetEvents, 0, 0)
	if errno != 0 {
		return 0, 0, fmt.Errorf("io_uring_enter (wait): %w", errno)
	}

	head := atomic.LoadUint32(r.ptrU32(r.cqRing, r.cqOff.head))
	tail := atomic.LoadUint32(r.ptrU32(r.cqRing, r.cqOff.tail))
	if head == tail {
		return 0, 0, errIoURingNoCompletion
	}
	mask := atomic.LoadUint32(r.ptrU32(r.cqRing, r.cqOff.ringMask))
	idx := head & mask
	cqe := (*cqeLayout)(unsafe.Pointer(uintptr(unsafe.Pointer(&r.cqRing[r.cqOff.cqes])) + uintptr(idx)*16))
	userData, res = cqe.userData, cqe.res

	atomic.StoreUint32(r.ptrU32(r.cqRing, r.cqOff.head), head+1)
	return userData, res, nil
}

type sqeLayout struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	pollEvents  uint32
	userData    uint64
	_pad        [3]uint64
}

type cqeLayout struct {
	userData uint64
	res      int32
	flags    uint32
}

var errIoURingNoCompletion = fmt.Errorf("io_uring: spurious wake with no completion")

// runIOURing drives the session using a single ring: stdin and the
// stream fd are each armed with a one-shot POLL_ADD, re-armed after every
// completion, matching spec §4.B's io_uring specifics.
func runIOURing(s *Session) error {
	ring, err := setupIOURing(8)
	if err != nil {
		return fmt.Errorf("io_uring backend: %w", err)
	}
	defer ring.close()

	armStdin := func() error {
		if s.canSend && !s.stdinClosed {
			return ring.submitPollAdd(int32(s.stdinHandle()), tagStdinPoll)
		}
		return nil
	}
	armStream := func() error {
		if s.canRecv && !s.socketClosed {
			return ring.submitPollAdd(int32(s.peerStream().Handle()), tagSocketRead)
		}
		return nil
	}

	if err := armStdin(); err != nil {
		return fmt.Errorf("io_uring backend: arming stdin: %w", err)
	}
	if err := armStream(); err != nil {
		return fmt.Errorf("io_uring backend: arming stream: %w", err)
	}

	for !s.done() {
		if err := s.peerStream().Maintain(); err != nil {
			return fmt.Errorf("io_uring backend: maintain: %w", err)
		}

		userData, res, err := ring.waitCompletion()
		if err != nil {
			if err == errIoURingNoCompletion {
				continue
			}
			return fmt.Errorf("io_uring backend: %w", err)
		}
		if res < 0 {
			return fmt.Errorf("io_uring backend: completion for tag %d: %w", userData, unix.Errno(-res))
		}

		switch userData {
		case tagStdinPoll:
			r := s.readFromStdin()
			if r.err != nil {
				return fmt.Errorf("io_uring backend: stdin read: %w", r.err)
			}
			if err := s.handleStdinRead(r); err != nil {
				return fmt.Errorf("io_uring backend: handling stdin chunk: %w", err)
			}
			if err := armStdin(); err != nil {
				return fmt.Errorf("io_uring backend: re-arming stdin: %w", err)
			}
		case tagSocketRead:
			r := s.readFromStream()
			if r.err != nil {
				return fmt.Errorf("io_uring backend: stream read: %w", r.err)
			}
			if err := s.handleStreamRead(r); err != nil {
				return fmt.Errorf("io_uring backend: handling stream chunk: %w", err)
			}
			if err := armStream(); err != nil {
				return fmt.Errorf("io_uring backend: re-arming stream: %w", err)
			}
		}
	}
	return nil
}
