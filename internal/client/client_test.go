package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/loctrack/internal/tracker"
	"github.com/dreamware/loctrack/internal/value"
)

func ptr(f float64) *float64 { return &f }

func TestUpdate(t *testing.T) {
	tests := []struct {
		name   string
		update Update
		check  func(t *testing.T, v value.Value)
	}{
		{
			name:   "coordinates only",
			update: Update{Latitude: 25.1, Longitude: 55.2},
			check: func(t *testing.T, v value.Value) {
				lat, _ := v.Get("latitude")
				n, ok := lat.AsNumber()
				require.True(t, ok)
				assert.Equal(t, 25.1, n)
				_, has := v.Get("accuracy")
				assert.False(t, has)
				_, has = v.Get("device_name")
				assert.False(t, has)
			},
		},
		{
			name:   "all fields",
			update: Update{Latitude: 1, Longitude: 2, Accuracy: ptr(4.5), DeviceName: "phone"},
			check: func(t *testing.T, v value.Value) {
				acc, _ := v.Get("accuracy")
				n, ok := acc.AsNumber()
				require.True(t, ok)
				assert.Equal(t, 4.5, n)
				name, _ := v.Get("device_name")
				s, ok := name.AsText()
				require.True(t, ok)
				assert.Equal(t, "phone", s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/location", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				raw, _ := io.ReadAll(r.Body)
				v, err := value.Parse(string(raw))
				require.NoError(t, err)
				tt.check(t, v)

				w.Write([]byte(`{"status":"success","message":"Location updated successfully"}`))
			}))
			defer srv.Close()

			require.NoError(t, New(srv.URL).Update(context.Background(), tt.update))
		})
	}
}

func TestCurrent(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/location", r.URL.Path)
			w.Write([]byte(`{"latitude":1.5,"longitude":2,"accuracy":null,"timestamp":"1700000000","device_name":"Unknown Device"}`))
		}))
		defer srv.Close()

		got, err := New(srv.URL + "/").Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tracker.Report{Latitude: 1.5, Longitude: 2, Timestamp: "1700000000", DeviceName: "Unknown Device"}, got)
	})

	t.Run("nothing yet", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"No location data available"}`))
		}))
		defer srv.Close()

		_, err := New(srv.URL).Current(context.Background())
		assert.ErrorIs(t, err, ErrNoLocation)
	})

	t.Run("unexpected shape", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[1,2,3]`))
		}))
		defer srv.Close()

		_, err := New(srv.URL).Current(context.Background())
		assert.Error(t, err)
	})
}

func TestHistoryAndClear(t *testing.T) {
	cleared := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/history":
			if cleared {
				w.Write([]byte(`{"locations":[]}`))
				return
			}
			w.Write([]byte(`{"locations":[{"latitude":1,"longitude":2,"accuracy":3,"timestamp":"1","device_name":"a"}]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/history/clear":
			cleared = true
			w.Write([]byte(`{"status":"success","message":"History cleared successfully"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	h, err := c.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []tracker.Report{{Latitude: 1, Longitude: 2, Accuracy: ptr(3), Timestamp: "1", DeviceName: "a"}}, h)

	require.NoError(t, c.Clear(ctx))

	h, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Invalid JSON"))
	}))
	defer srv.Close()

	err := New(srv.URL).Update(context.Background(), Update{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Invalid JSON", se.Body)
	assert.Contains(t, se.Error(), "400")
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).History(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidURL(t *testing.T) {
	_, err := New("http://[::1]:namedport").History(context.Background())
	assert.Error(t, err)
}
