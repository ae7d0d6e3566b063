package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"pulsechat/internal/app/user"
)

type fakeDirectory struct {
	mu    sync.RWMutex
	users map[string]user.Identity
}

func (d *fakeDirectory) Resolve(userID string) (user.Identity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	identity, ok := d.users[userID]
	return identity, ok
}

func (d *fakeDirectory) rename(userID, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	identity := d.users[userID]
	identity.DisplayName = name
	d.users[userID] = identity
}

func testMessage(id, senderID, body string) ChatMessage {
	return ChatMessage{
		ID:         id,
		SenderID:   senderID,
		SenderName: "original",
		Body:       body,
		Timestamp:  1,
	}
}

func TestMessageLog_Capacity_Evicts_Oldest(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(3, nil)

	// Given four messages appended into a capacity-3 log
	for i := 1; i <= 4; i++ {
		log.Append(testMessage(fmt.Sprintf("m%d", i), "u1", fmt.Sprintf("body %d", i)))
	}

	// Then the log holds exactly the last three, oldest first
	req.Equal(3, log.Len())
	recent := log.Recent(3)
	req.Len(recent, 3)
	req.Equal("m2", recent[0].ID)
	req.Equal("m3", recent[1].ID)
	req.Equal("m4", recent[2].ID)
}

func TestMessageLog_Never_Exceeds_Capacity(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(10, nil)

	for i := 0; i < 35; i++ {
		log.Append(testMessage(fmt.Sprintf("m%d", i), "u1", "x"))
	}

	req.Equal(10, log.Len())
	recent := log.Recent(100)
	req.Len(recent, 10)
	req.Equal("m25", recent[0].ID)
	req.Equal("m34", recent[9].ID)
}

func TestMessageLog_Recent_Window_Includes_Newest(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(5, nil)

	for i := 1; i <= 4; i++ {
		log.Append(testMessage(fmt.Sprintf("m%d", i), "u1", "x"))
	}

	recent := log.Recent(2)
	req.Len(recent, 2)
	req.Equal("m3", recent[0].ID)
	req.Equal("m4", recent[1].ID)

	req.Empty(log.Recent(0))
}

func TestMessageLog_Resolves_Sender_Name_At_Read_Time(t *testing.T) {
	req := require.New(t)
	directory := &fakeDirectory{users: map[string]user.Identity{
		"u1": {ID: "u1", DisplayName: "Alice"},
	}}
	log := NewMessageLog(5, directory)

	log.Append(testMessage("m1", "u1", "hello"))
	log.Append(testMessage("m2", "ghost", "boo"))

	// The known sender's current name wins over the stored one
	recent := log.Recent(5)
	req.Equal("Alice", recent[0].SenderName)
	// Unknown senders keep the name recorded at send time
	req.Equal("original", recent[1].SenderName)

	// When the user record changes, history follows
	directory.rename("u1", "Alicia")
	recent = log.Recent(5)
	req.Equal("Alicia", recent[0].SenderName)
}

func TestMessageLog_Concurrent_Append_And_Read(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(64, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				log.Append(testMessage(fmt.Sprintf("w%d-m%d", w, i), "u1", "x"))
			}
		}(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				for _, msg := range log.Recent(64) {
					if msg.ID == "" {
						t.Error("observed partially written entry")
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	req.Equal(64, log.Len())
}
