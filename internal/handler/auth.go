package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
)

// Login result codes carried in S_LOGIN_RESULT.
const (
	LoginOK            byte = 0
	LoginBadCredential byte = 1
	LoginBanned        byte = 2
	LoginAlreadyOn     byte = 3
	LoginError         byte = 4
)

// maxLoginAttempts is how many failed credential checks a session gets
// before it is dropped.
const maxLoginAttempts = 3

// HandleLogin processes C_LOGIN: [S operator][S password].
// On success the session gets a fresh token and moves to Authenticated.
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadS()
	password := r.ReadS()

	if name == "" || password == "" {
		sendLoginResult(sess, LoginBadCredential, "")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	row, err := deps.OperatorRepo.Load(ctx, name)
	if err != nil {
		deps.Log.Error("operator lookup failed", zap.String("operator", name), zap.Error(err))
		sendLoginResult(sess, LoginError, "")
		return
	}
	if row == nil || !deps.OperatorRepo.ValidatePassword(row.PasswordHash, password) {
		deps.Log.Info("login rejected",
			zap.Uint64("session", sess.ID),
			zap.String("operator", name),
			zap.String("ip", sess.IP),
		)
		sess.LoginAttempts++
		sendLoginResult(sess, LoginBadCredential, "")
		if sess.LoginAttempts >= maxLoginAttempts {
			SendDisconnect(sess, DisconnectAuthFailed)
			sess.SetState(packet.StateDisconnecting)
		}
		return
	}
	if row.Banned {
		sendLoginResult(sess, LoginBanned, "")
		SendDisconnect(sess, DisconnectBanned)
		sess.SetState(packet.StateDisconnecting)
		return
	}
	if row.Online {
		// Previous session still marked online; refuse the double login.
		sendLoginResult(sess, LoginAlreadyOn, "")
		return
	}

	token := uuid.NewString()
	sess.Operator = row.Name
	sess.Token = token

	if err := deps.OperatorRepo.SetOnline(ctx, row.Name, true); err != nil {
		deps.Log.Error("mark operator online failed", zap.String("operator", row.Name), zap.Error(err))
	}
	if err := deps.OperatorRepo.UpdateLastSeen(ctx, row.Name, sess.IP); err != nil {
		deps.Log.Error("update last seen failed", zap.String("operator", row.Name), zap.Error(err))
	}

	deps.Log.Info("operator logged in",
		zap.Uint64("session", sess.ID),
		zap.String("operator", row.Name),
	)
	sendLoginResult(sess, LoginOK, token)
	sess.SetState(packet.StateAuthenticated)
}

// sendLoginResult sends S_LOGIN_RESULT: [C code][S token].
func sendLoginResult(sess *net.Session, code byte, token string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGIN_RESULT)
	w.WriteC(code)
	w.WriteS(token)
	sess.Send(w.Bytes())
}
