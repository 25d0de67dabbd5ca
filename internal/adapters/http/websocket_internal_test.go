package http

import (
	"testing"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

func reqAt(lat float64) usecases.LabelRequest {
	return usecases.LabelRequest{Region: &domain.Region{Latitude: lat, Longitude: 55, LatitudeDelta: 0.01, LongitudeDelta: 0.01}}
}

func TestRegionStream_LastWriteWins(t *testing.T) {
	s := newRegionStream()
	s.push(reqAt(1))
	s.push(reqAt(2))
	s.push(reqAt(3))

	req, seq, ok := s.take()
	if !ok {
		t.Fatal("expected a pending request")
	}
	if req.Region.Latitude != 3 || seq != 3 {
		t.Errorf("expected newest request (lat 3, seq 3), got lat %v seq %d", req.Region.Latitude, seq)
	}
	if _, _, ok := s.take(); ok {
		t.Error("older requests must be dropped")
	}
}

func TestRegionStream_Replay(t *testing.T) {
	s := newRegionStream()
	s.replay()
	if _, _, ok := s.take(); ok {
		t.Fatal("nothing to replay before the first request")
	}

	s.push(reqAt(1))
	s.take()
	s.replay()
	req, seq, ok := s.take()
	if !ok || req.Region.Latitude != 1 || seq != 2 {
		t.Errorf("expected replay of lat 1 with seq 2, got ok=%v seq=%d", ok, seq)
	}

	// A newer pending request is not overwritten by a replay.
	s.push(reqAt(5))
	s.replay()
	req, _, _ = s.take()
	if req.Region.Latitude != 5 {
		t.Errorf("expected pending lat 5, got %v", req.Region.Latitude)
	}
}
