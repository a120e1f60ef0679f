package resultset

import (
	"github.com/gomysqlx/client/protocol"
	"github.com/gomysqlx/client/wire"
	"github.com/gomysqlx/client/xerr"
	"github.com/gomysqlx/client/xmessage"
)

// Row is one decoded row, aligned with Result.Columns by index.
type Row struct {
	Field []Value
}

// Result reads one statement execution's output: zero or more
// resultsets, each a run of ColumnMetaData frames followed by Row
// frames, terminated by FETCH_DONE (optionally chained to another
// resultset by FETCH_DONE_MORE_RESULTSETS), and finally the
// STMT_EXECUTE_OK that also carries any trailing notices.
//
// Only one Result may be actively reading the connection at a time;
// Close must be called (directly, or implicitly by a later call that
// needs the connection idle) before the connection can be reused.
type Result struct {
	p *protocol.Protocol

	Columns []*xmessage.ColumnMetaData

	metadataRead bool
	fetchDone    bool
	hadRows      bool
	hasMore      bool
	isOutParam   bool
	suspended    bool
	pending      *pendingFrame
	done         bool // STMT_EXECUTE_OK observed, connection idle again

	lastInsertID       uint64
	hasLastInsertID    bool
	affectedRows       uint64
	hasAffectedRows    bool
	infoMessage        string
	hasInfoMessage     bool
	generatedDocIDs    []string
	warnings           []xmessage.Warning
	noticeHandlerID    protocol.HandlerID
	err                *xerr.Error
}

// New starts reading the response to a just-sent statement execution,
// installing a notice handler that transparently captures session
// state (rows_affected, generated_insert_id, generated_document_ids,
// produced_message) and warnings as they stream in.
func New(p *protocol.Protocol) *Result {
	r := &Result{p: p}
	r.noticeHandlerID = p.AddNoticeHandler(r.handleNotice, protocol.End, protocol.PriorityMedium)
	return r
}

func (r *Result) handleNotice(_ *protocol.Protocol, n *xmessage.Notice) protocol.Result {
	switch n.Type {
	case xmessage.NoticeWarning:
		w := &xmessage.Warning{}
		if err := w.Unmarshal(n.Payload); err == nil {
			r.warnings = append(r.warnings, *w)
		}
	case xmessage.NoticeSessionStateChanged:
		s := &xmessage.SessionStateChanged{}
		if err := s.Unmarshal(n.Payload); err != nil || s.Value == nil {
			return protocol.Continue
		}
		switch s.Param {
		case xmessage.StateGeneratedInsertID:
			if v, ok := scalarUint(s.Value); ok {
				r.lastInsertID, r.hasLastInsertID = v, true
			}
		case xmessage.StateRowsAffected:
			if v, ok := scalarUint(s.Value); ok {
				r.affectedRows, r.hasAffectedRows = v, true
			}
		case xmessage.StateProducedMessage:
			if v, ok := scalarString(s.Value); ok {
				r.infoMessage, r.hasInfoMessage = v, true
			}
		case xmessage.StateGeneratedDocumentIDs:
			if v, ok := scalarString(s.Value); ok {
				r.generatedDocIDs = append(r.generatedDocIDs, v)
			}
		}
	}
	return protocol.Continue
}

func scalarUint(s *xmessage.Scalar) (uint64, bool) {
	switch s.Type {
	case xmessage.ScalarUInt:
		return s.VUnsignedInt, true
	case xmessage.ScalarSInt:
		if s.VSignedInt >= 0 {
			return uint64(s.VSignedInt), true
		}
	}
	return 0, false
}

func scalarString(s *xmessage.Scalar) (string, bool) {
	if s.Type == xmessage.ScalarString {
		return string(s.VString), true
	}
	if s.Type == xmessage.ScalarOctets {
		return string(s.VOctets), true
	}
	return "", false
}

// HasResultset reports whether the statement produced at least one
// resultset (as opposed to going straight to STMT_EXECUTE_OK),
// reading the column metadata on first call if needed.
func (r *Result) HasResultset() (bool, *xerr.Error) {
	if err := r.readMetadata(); err != nil {
		return false, err
	}
	return len(r.Columns) > 0, nil
}

func (r *Result) readMetadata() *xerr.Error {
	if r.metadataRead || r.done {
		return nil
	}
	for {
		mid, payload, err := r.p.RecvFrame()
		if err != nil {
			r.err = err
			return err
		}
		switch mid {
		case wire.ServerResultsetColumnMetaData:
			col := &xmessage.ColumnMetaData{}
			if uerr := col.Unmarshal(payload); uerr != nil {
				r.err = xerr.Newf(xerr.MalformedPacket, "resultset: unmarshal column metadata: %v", uerr)
				return r.err
			}
			r.Columns = append(r.Columns, col)
			continue
		case wire.ServerError:
			r.err = decodeError(payload)
			return r.err
		case wire.ServerSQLStmtExecuteOk:
			r.metadataRead = true
			r.fetchDone = true
			r.finish()
			return nil
		default:
			r.metadataRead = true
			return r.handleNonMetadata(mid, payload)
		}
	}
}

// handleNonMetadata is reached when the first non-ColumnMetaData frame
// arrives; it must be a Row (metadata read is over) or a terminal
// frame for a resultset with zero columns, which cannot normally
// happen but is handled defensively.
func (r *Result) handleNonMetadata(mid wire.ServerMsgID, payload []byte) *xerr.Error {
	r.pending = &pendingFrame{mid: mid, payload: payload}
	return nil
}

type pendingFrame struct {
	mid     wire.ServerMsgID
	payload []byte
}

func decodeError(payload []byte) *xerr.Error {
	e := &xmessage.Error{}
	if err := e.Unmarshal(payload); err != nil {
		return xerr.Newf(xerr.MalformedPacket, "resultset: unmarshal error frame: %v", err)
	}
	return xerr.Server(int(e.Code), e.Msg, e.SQLState, e.Severity == xmessage.ErrorSeverityFatal)
}

// NextRow reads the next row of the current resultset, or returns
// (nil, nil) once it's exhausted.
func (r *Result) NextRow() (*Row, *xerr.Error) {
	if err := r.readMetadata(); err != nil {
		return nil, err
	}
	if r.fetchDone {
		return nil, nil
	}

	mid, payload, err := r.nextFrame()
	if err != nil {
		r.err = err
		return nil, err
	}

	switch mid {
	case wire.ServerResultsetRow:
		row := &xmessage.Row{}
		if uerr := row.Unmarshal(payload); uerr != nil {
			r.err = xerr.Newf(xerr.MalformedPacket, "resultset: unmarshal row: %v", uerr)
			return nil, r.err
		}
		out := &Row{Field: make([]Value, len(row.Field))}
		for i, f := range row.Field {
			var col *xmessage.ColumnMetaData
			if i < len(r.Columns) {
				col = r.Columns[i]
			} else {
				col = &xmessage.ColumnMetaData{Type: xmessage.ColumnBytes}
			}
			v, derr := decodeField(col, f)
			if derr != nil {
				r.err = xerr.Newf(xerr.MalformedPacket, "resultset: %v", derr)
				return nil, r.err
			}
			out.Field[i] = v
		}
		r.hadRows = true
		return out, nil
	case wire.ServerResultsetFetchDone:
		r.fetchDone = true
		return nil, nil
	case wire.ServerResultsetFetchDoneMoreResultsets, wire.ServerResultsetFetchDoneMoreOutParams:
		r.fetchDone = true
		r.hasMore = true
		r.isOutParam = mid == wire.ServerResultsetFetchDoneMoreOutParams
		return nil, nil
	case wire.ServerResultsetFetchSuspended:
		r.fetchDone = true
		r.suspended = true
		return nil, nil
	case wire.ServerError:
		r.err = decodeError(payload)
		return nil, r.err
	default:
		r.err = xerr.Newf(xerr.MalformedPacket, "resultset: unexpected message %s while reading rows", mid)
		return nil, r.err
	}
}

func (r *Result) nextFrame() (wire.ServerMsgID, []byte, *xerr.Error) {
	if r.pending != nil {
		p := r.pending
		r.pending = nil
		return p.mid, p.payload, nil
	}
	return r.p.RecvFrame()
}

// NextResultset advances to the next resultset in a multi-statement or
// multi-resultset stored-procedure response, reading its column
// metadata. It returns false once there is nothing left, at which
// point the caller should expect STMT_EXECUTE_OK to follow.
func (r *Result) NextResultset() (bool, *xerr.Error) {
	if !r.hasMore {
		return false, nil
	}
	r.hasMore = false
	r.Columns = nil
	r.metadataRead = false
	r.fetchDone = false
	r.hadRows = false
	if err := r.readMetadata(); err != nil {
		return false, err
	}
	return true, nil
}

// Close drains any remaining rows/resultsets and the terminal
// STMT_EXECUTE_OK, leaving the connection idle for the next command.
// It is safe to call multiple times.
func (r *Result) Close() *xerr.Error {
	if r.done {
		r.finish()
		return r.err
	}
	for {
		if _, err := r.HasResultset(); err != nil {
			r.finish()
			return err
		}
		for {
			row, err := r.NextRow()
			if err != nil {
				r.finish()
				return err
			}
			if row == nil {
				break
			}
		}
		more, err := r.NextResultset()
		if err != nil {
			r.finish()
			return err
		}
		if !more {
			break
		}
	}
	if !r.done {
		mid, payload, err := r.nextFrame()
		if err != nil {
			r.finish()
			return err
		}
		switch mid {
		case wire.ServerSQLStmtExecuteOk:
		case wire.ServerError:
			r.err = decodeError(payload)
		default:
			r.err = xerr.Newf(xerr.MalformedPacket, "resultset: unexpected message %s, wanted STMT_EXECUTE_OK", mid)
		}
	}
	r.finish()
	return r.err
}

func (r *Result) finish() {
	if r.done {
		return
	}
	r.done = true
	r.p.RemoveNoticeHandler(r.noticeHandlerID)
}

// LastInsertID returns the generated AUTO_INCREMENT id, if the
// statement produced one.
func (r *Result) LastInsertID() (uint64, bool) { return r.lastInsertID, r.hasLastInsertID }

// AffectedRows returns the affected-row count, if the server reported one.
func (r *Result) AffectedRows() (uint64, bool) { return r.affectedRows, r.hasAffectedRows }

// InfoMessage returns the statement's informational message, if any.
func (r *Result) InfoMessage() (string, bool) { return r.infoMessage, r.hasInfoMessage }

// GeneratedDocumentIDs returns the document _ids the server assigned
// during a CRUD insert without client-supplied ids.
func (r *Result) GeneratedDocumentIDs() []string { return r.generatedDocIDs }

// Warnings returns every warning notice observed so far.
func (r *Result) Warnings() []xmessage.Warning { return r.warnings }

// IsOutParameterResultset reports whether the resultset just finished
// was a stored procedure's OUT-parameter set rather than ordinary rows.
func (r *Result) IsOutParameterResultset() bool { return r.isOutParam }
