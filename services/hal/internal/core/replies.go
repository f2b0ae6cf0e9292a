package core

import (
	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/errcode"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

func (h *HAL) replyOK(m *bus.Message) {
	if m.CanReply() {
		h.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (h *HAL) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	h.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}
