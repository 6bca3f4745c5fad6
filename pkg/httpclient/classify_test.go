package httpclient

import (
	"errors"
	"net/http"
	"testing"
)

// TestClassifyResponse はステータスとボディからEnvelopeへの変換を検証する。
func TestClassifyResponse(t *testing.T) {
	t.Parallel()

	t.Run("2xxは成功としてボディ全体をDataに入れること", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"success":true,"data":[{"_id":"1"}],"total":1}`)
		env := ClassifyResponse(http.StatusOK, body)
		if !env.Success || env.Kind != KindNone {
			t.Fatalf("Envelope = %+v, want success", env)
		}
		if string(env.Data) != string(body) {
			t.Errorf("Data = %s, want %s", env.Data, body)
		}
		if env.Err() != nil {
			t.Errorf("Err() = %v, want nil", env.Err())
		}
	})

	t.Run("ボディのsuccessがfalseでも2xxなら成功とすること", func(t *testing.T) {
		t.Parallel()

		env := ClassifyResponse(http.StatusOK, []byte(`{"success":false,"msg":"Invalid credentials"}`))
		if !env.Success {
			t.Error("Success = false, want true")
		}
		if env.Message != "Invalid credentials" {
			t.Errorf("Message = %q, want %q", env.Message, "Invalid credentials")
		}
	})

	t.Run("空白だけのメッセージは採用しないこと", func(t *testing.T) {
		t.Parallel()

		env := ClassifyResponse(http.StatusBadRequest, []byte(`{"message":"   ","error":"year is required"}`))
		if env.Message != "year is required" {
			t.Errorf("Message = %q, want %q", env.Message, "year is required")
		}
	})

	t.Run("サーバーメッセージはmessage、error、msgの順に採用すること", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			body string
			want string
		}{
			{"すべてある場合はmessage", `{"message":"from message","error":"from error","msg":"from msg"}`, "from message"},
			{"messageがない場合はerror", `{"error":"from error","msg":"from msg"}`, "from error"},
			{"msgだけの場合はmsg", `{"msg":"from msg"}`, "from msg"},
			{"文字列でないmessageは読み飛ばすこと", `{"message":{"code":1},"msg":"from msg"}`, "from msg"},
			{"どれもない場合は固定メッセージ", `{"detail":"ignored"}`, MessageBadRequest},
		}
		for _, tt := range tests {
			env := ClassifyResponse(http.StatusBadRequest, []byte(tt.body))
			if env.Message != tt.want {
				t.Errorf("%s: Message = %q, want %q", tt.name, env.Message, tt.want)
			}
		}
	})

	t.Run("JSON配列のボディからはメッセージを取り出さないこと", func(t *testing.T) {
		t.Parallel()

		env := ClassifyResponse(http.StatusTeapot, []byte(`["message"]`))
		if env.Message != MessageUnexpected {
			t.Errorf("Message = %q, want %q", env.Message, MessageUnexpected)
		}
	})

	t.Run("失敗時のErrはRequestErrorを返すこと", func(t *testing.T) {
		t.Parallel()

		env := ClassifyResponse(http.StatusUnauthorized, nil)
		err := env.Err()
		var re *RequestError
		if !errors.As(err, &re) {
			t.Fatalf("Err() = %v, want *RequestError", err)
		}
		if re.StatusCode != http.StatusUnauthorized || re.Kind != KindClientRequest {
			t.Errorf("RequestError = %+v", re)
		}
		if !IsUnauthorized(err) {
			t.Error("IsUnauthorized() = false, want true")
		}
		if IsNotFound(err) {
			t.Error("IsNotFound() = true, want false")
		}
	})
}

// TestClassifyError は送信前後のエラーの分類を検証する。
func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantMsg  string
	}{
		{"NetworkErrorは応答なし", &NetworkError{Err: errors.New("dial tcp: connection refused")}, KindNetwork, MessageNoResponse},
		{"ConstructionErrorはエラー文を含む", &ConstructionError{Err: errors.New("bad body")}, KindConstruction, "Error: bad body"},
		{"分類のないエラーは組み立て失敗", errors.New("oops"), KindConstruction, "Error: oops"},
		{"nilでもEnvelopeを返す", nil, KindConstruction, "Error: unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := ClassifyError(tt.err)
			if env.Success {
				t.Fatal("Success = true, want false")
			}
			if env.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", env.Kind, tt.wantKind)
			}
			if env.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", env.Message, tt.wantMsg)
			}
			if env.StatusCode != 0 {
				t.Errorf("StatusCode = %d, want 0", env.StatusCode)
			}
		})
	}
}

// TestKindString は分類名の文字列表現を検証する。
func TestKindString(t *testing.T) {
	t.Parallel()

	if KindNetwork.String() != "network" {
		t.Errorf("KindNetwork.String() = %q", KindNetwork.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}
