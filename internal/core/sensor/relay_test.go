package sensor

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func sighting(w *fakeWorld, body *fakeBody) *Contact {
	c := NewContact(w, body)
	c.Family, c.Side = body.Family(), body.Side()
	c.Pos, c.Vel, c.Acc = vec(body.pos), vec(body.vel), vec(body.acc)
	c.Track, c.Firsthand = true, true
	return c
}

func TestBoardCommitLatency(t *testing.T) {
	red := newBody("red1", "plane", "red", r3.Vec{Y: 1000})
	w := newWorld(red)
	b := NewBoard()

	b.Publish("tag", red, sighting(w, red), 2, 0)
	assert.Nil(t, b.Lookup("tag", red.id, 0), "staged writes are not visible")
	assert.NotNil(t, b.Peek("tag", red.id, 0))
	assert.Zero(t, b.Len("tag", 0))

	b.Commit(0)
	got := b.Lookup("tag", red.id, 0)
	require.NotNil(t, got)
	assert.Equal(t, red.pos, *got.Pos)

	got.Side = "blue"
	assert.Equal(t, Side("red"), b.Lookup("tag", red.id, 0).Side, "lookups are copies")
	assert.Nil(t, b.Lookup("other", red.id, 0))
}

func TestBoardExpiry(t *testing.T) {
	red := newBody("red1", "plane", "red", r3.Vec{})
	w := newWorld(red)
	b := NewBoard()

	b.Publish("tag", red, sighting(w, red), 1, 0)
	b.Commit(0)
	assert.NotNil(t, b.Lookup("tag", red.id, 0.9))
	assert.Nil(t, b.Lookup("tag", red.id, 1))

	b.Publish("tag", red, sighting(w, red), 1, 0.5)
	b.Commit(0.5)
	b.Commit(1.2)
	assert.NotNil(t, b.Lookup("tag", red.id, 1.2), "refreshed entry outlives the first expiry")
	b.Commit(1.5)
	assert.Nil(t, b.Lookup("tag", red.id, 1.5))
	assert.Zero(t, b.Len("tag", 0))

	b.Publish("tag", red, sighting(w, red), NoExpiry, 2)
	b.Commit(1e9)
	assert.NotNil(t, b.Lookup("tag", red.id, 1e9))

	b.Expire("tag", red)
	assert.Nil(t, b.Peek("tag", red.id, 1e9))
	assert.NotNil(t, b.Lookup("tag", red.id, 1e9))
	b.Commit(1e9)
	assert.Nil(t, b.Lookup("tag", red.id, 1e9))
}

func TestBoardRefreshReusesExpirySlot(t *testing.T) {
	red := newBody("red1", "plane", "red", r3.Vec{})
	blue := newBody("blue1", "plane", "blue", r3.Vec{})
	w := newWorld(red, blue)
	b := NewBoard()

	for i := range 10 {
		now := float64(i)
		b.Publish("tag", red, sighting(w, red), 3, now)
		b.Commit(now)
	}
	assert.Equal(t, 1, b.queued())
	assert.NotNil(t, b.Lookup("tag", red.id, 11.5))

	b.Publish("tag", blue, sighting(w, blue), 1, 10)
	b.Expire("tag", red)
	b.Commit(10)
	assert.Equal(t, 2, b.queued())
	assert.Nil(t, b.Lookup("tag", red.id, 10))

	b.Commit(13)
	assert.Zero(t, b.queued())
	assert.Zero(t, b.Len("tag", 13))
}

func TestBoardBodiesSortedByName(t *testing.T) {
	w := newWorld()
	b := NewBoard()
	for _, name := range []string{"red3", "red1", "red2"} {
		body := newBody(name, "plane", "red", r3.Vec{})
		b.Publish("tag", body, sighting(w, body), 10, 0)
	}
	b.Commit(0)
	var names []string
	for _, body := range b.Bodies("tag", 0) {
		names = append(names, body.Name())
	}
	assert.Equal(t, []string{"red1", "red2", "red3"}, names)
}

func TestBoardConcurrentPublish(t *testing.T) {
	w := newWorld()
	b := NewBoard()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag := fmt.Sprintf("tag-%d", i)
			for j := range 50 {
				body := newBody(fmt.Sprintf("body-%d", j), "plane", "red", r3.Vec{})
				b.Publish(tag, body, sighting(w, body), 10, 0)
				b.Lookup(tag, body.id, 0)
			}
		}()
	}
	wg.Wait()
	b.Commit(0)
	for i := range 8 {
		assert.Equal(t, 50, b.Len(fmt.Sprintf("tag-%d", i), 0))
	}
}

func TestDataLinkRelaysWithOneTickLatency(t *testing.T) {
	a := newBody("blue1", "plane", "blue", r3.Vec{})
	b := newBody("blue2", "plane", "blue", r3.Vec{X: 5000})
	enemy := newBody("red1", "plane", "red", r3.Vec{Y: 30000})
	enemyB := newBody("red2", "plane", "red", r3.Vec{Y: 30000})
	w := newWorld(a, b, enemy, enemyB)
	cfg := DataLinkConfig{Families: planes, SendFamilies: planes, CanReceive: true, CanSend: true}
	sender, receiver := NewDataLink(w.env(a), cfg), NewDataLink(w.env(b), cfg)

	sender.Note(sighting(w, enemy), 1.5)
	assert.Nil(t, receiver.Test(enemy), "visible only after commit")

	w.board.Commit(w.t)
	c := receiver.Test(enemy)
	require.NotNil(t, c)
	assert.False(t, c.Firsthand)
	assert.True(t, c.Track)
	assert.Equal(t, enemy.pos, *c.Pos)

	w.t = 1.5
	w.board.Commit(w.t)
	assert.Nil(t, receiver.Test(enemy), "expired")

	relayed := sighting(w, enemyB)
	relayed.Firsthand = false
	sender.Note(relayed, 10)
	w.board.Commit(w.t)
	assert.Nil(t, receiver.Test(enemyB), "secondhand data is not forwarded")
}

func TestDataLinkFilters(t *testing.T) {
	a := newBody("blue1", "plane", "blue", r3.Vec{})
	b := newBody("blue2", "plane", "blue", r3.Vec{})
	foe := newBody("red9", "plane", "red", r3.Vec{})
	enemy := newBody("red1", "plane", "red", r3.Vec{Y: 30000})
	w := newWorld(a, b, foe, enemy)

	noSend := NewDataLink(w.env(a), DataLinkConfig{Families: planes, SendFamilies: NewFamilySet("ship"), CanSend: true})
	noSend.Note(sighting(w, enemy), 10)
	w.board.Commit(w.t)
	assert.Zero(t, w.board.Len(DataLinkSideTag("blue"), w.t))

	deaf := NewDataLink(w.env(b), DataLinkConfig{Families: planes, CanReceive: false})
	enemyLink := NewDataLink(w.env(foe), DataLinkConfig{Families: planes, CanReceive: true})
	sender := NewDataLink(w.env(a), DataLinkConfig{Families: planes, SendFamilies: planes, CanSend: true})
	sender.Note(sighting(w, enemy), 10)
	w.board.Commit(w.t)
	assert.Nil(t, deaf.Test(enemy))
	assert.Nil(t, enemyLink.Test(enemy), "other sides use another tag")

	w.board.Publish(DataLinkNameTag("red9"), enemy, sighting(w, enemy), 10, w.t)
	w.board.Commit(w.t)
	assert.NotNil(t, enemyLink.Test(enemy), "addressed by name")
}

func TestDataLinkMergesReports(t *testing.T) {
	a := newBody("blue1", "plane", "blue", r3.Vec{})
	b := newBody("blue2", "plane", "blue", r3.Vec{})
	enemy := newBody("red1", "plane", "red", r3.Vec{Y: 30000})
	w := newWorld(a, b, enemy)
	cfg := DataLinkConfig{Families: planes, SendFamilies: planes, CanReceive: true, CanSend: true}
	la, lb := NewDataLink(w.env(a), cfg), NewDataLink(w.env(b), cfg)

	first := sighting(w, enemy)
	first.Species = "mig29"
	la.Note(first, 10)

	second := sighting(w, enemy)
	second.Side = ""
	lb.Note(second, 10)
	w.board.Commit(w.t)

	info := w.board.Lookup(DataLinkSideTag("blue"), enemy.id, w.t)
	require.NotNil(t, info)
	assert.Equal(t, "mig29", info.Species)
	assert.Equal(t, Side("red"), info.Side)
}

func TestCommStripsDetail(t *testing.T) {
	a := newBody("blue1", "plane", "blue", r3.Vec{})
	b := newBody("blue2", "plane", "blue", r3.Vec{})
	enemy := newBody("red1", "plane", "red", r3.Vec{Y: 30000})
	enemy.acc = r3.Vec{X: 9}
	w := newWorld(a, b, enemy)
	talker, listener := NewComm(w.env(a), planes), NewComm(w.env(b), planes)

	second := sighting(w, enemy)
	second.Firsthand = false
	talker.Note(second, 10)
	w.board.Commit(w.t)
	assert.Nil(t, listener.Test(enemy), "only firsthand sightings are called out")

	talker.Note(sighting(w, enemy), 10)
	assert.Nil(t, listener.Test(enemy))
	w.board.Commit(w.t)

	c := listener.Test(enemy)
	require.NotNil(t, c)
	assert.NotNil(t, c.Pos)
	assert.NotNil(t, c.Vel)
	assert.Nil(t, c.Acc)
	assert.False(t, c.Track)
	assert.False(t, c.Firsthand)
}

func TestRelaySensorsWithoutBoard(t *testing.T) {
	a := newBody("blue1", "plane", "blue", r3.Vec{})
	enemy := newBody("red1", "plane", "red", r3.Vec{Y: 30000})
	w := newWorld(a, enemy)
	env := Env{Owner: a, World: w}

	link := NewDataLink(env, DataLinkConfig{Families: planes, SendFamilies: planes, CanReceive: true, CanSend: true})
	comm := NewComm(env, planes)
	for _, s := range []Sensor{link, comm} {
		s.Note(sighting(w, enemy), 10)
		assert.Nil(t, s.Test(enemy))
	}
}

func TestPacksShareThroughDataLink(t *testing.T) {
	a := newBody("blue1", "plane", "blue", r3.Vec{})
	b := newBody("blue2", "plane", "blue", r3.Vec{X: 5000})
	enemy := newBody("red1", "plane", "red", r3.Vec{Y: 30000})
	w := newWorld(a, b, enemy)
	cfg := DataLinkConfig{Families: planes, SendFamilies: planes, CanReceive: true, CanSend: true}

	a.pack = exactPack(a, w, 1)
	require.NoError(t, a.pack.Add(newStub(w.env(a), "plane"), "radar"))
	require.NoError(t, a.pack.Add(NewDataLink(w.env(a), cfg), "datalink"))
	b.pack = exactPack(b, w, 1)
	require.NoError(t, b.pack.Add(NewDataLink(w.env(b), cfg), "datalink"))

	for range 9 {
		w.step(scanDt, a.pack, b.pack)
	}
	c := b.pack.Contact(enemy)
	require.NotNil(t, c)
	assert.False(t, c.Firsthand)
	assert.True(t, b.pack.Track(c))
	assert.Equal(t, []string{"datalink"}, b.pack.SensorsByContact()[c])

	own := a.pack.Contact(enemy)
	require.NotNil(t, own)
	assert.True(t, own.Firsthand)
}
