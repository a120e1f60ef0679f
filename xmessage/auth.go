package xmessage

import "google.golang.org/protobuf/encoding/protowire"

// AuthenticateStart is SESS_AUTHENTICATE_START, kicking off the
// authentication handshake with a chosen mechanism name (PLAIN,
// MYSQL41, SHA256_MEMORY) and an optional first auth_data payload.
type AuthenticateStart struct {
	MechName string
	AuthData []byte
	InitialResponse []byte
}

func (a *AuthenticateStart) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, a.MechName)
	if a.AuthData != nil {
		b = appendBytes(b, 2, a.AuthData)
	}
	if a.InitialResponse != nil {
		b = appendBytes(b, 3, a.InitialResponse)
	}
	return b, nil
}

func (a *AuthenticateStart) Unmarshal(data []byte) error {
	*a = AuthenticateStart{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a.MechName = string(v)
			return n, nil
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a.AuthData = v
			return n, nil
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return 0, err
			}
			a.InitialResponse = v
			return n, nil
		}
		return -1, nil
	})
}

// AuthenticateContinue carries one round trip's auth_data in either
// direction (SESS_AUTHENTICATE_CONTINUE).
type AuthenticateContinue struct {
	AuthData []byte
}

func (a *AuthenticateContinue) Marshal() ([]byte, error) {
	return appendBytes(nil, 1, a.AuthData), nil
}

func (a *AuthenticateContinue) Unmarshal(data []byte) error {
	*a = AuthenticateContinue{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		a.AuthData = v
		return n, nil
	})
}

// AuthenticateOk terminates a successful handshake, optionally carrying
// server-side auth_data (used by SHA256_MEMORY to cache the scramble).
type AuthenticateOk struct {
	AuthData []byte
}

func (a *AuthenticateOk) Marshal() ([]byte, error) {
	if a.AuthData == nil {
		return nil, nil
	}
	return appendBytes(nil, 2, a.AuthData), nil
}

func (a *AuthenticateOk) Unmarshal(data []byte) error {
	*a = AuthenticateOk{}
	return decodeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		if num != 2 {
			return -1, nil
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return 0, err
		}
		a.AuthData = v
		return n, nil
	})
}
