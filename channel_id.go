package sdp

import (
	"fmt"
	"sync"
)

// channelIDs hands out ChannelIDs for accepted connections. An ID is not
// reused while its connection is open, also after the counter wraps.
type channelIDs struct {
	mutex *sync.Mutex
	last  ChannelID
	used  map[ChannelID]struct{}
}

func newChannelIDs() *channelIDs {
	return &channelIDs{
		mutex: &sync.Mutex{},
		used:  map[ChannelID]struct{}{},
	}
}

// get returns the next free ID after the last one handed out. 0 is never
// used.
func (a *channelIDs) get() (ChannelID, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	for range 0xFFFF {
		a.last++
		if a.last == 0 {
			a.last++
		}
		if _, ok := a.used[a.last]; ok {
			continue
		}
		a.used[a.last] = struct{}{}
		return a.last, nil
	}
	return 0, fmt.Errorf("%w: no channel ID is free", ErrTooManyChannels)
}

func (a *channelIDs) put(id ChannelID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	delete(a.used, id)
}
