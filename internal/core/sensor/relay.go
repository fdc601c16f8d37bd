package sensor

// DataLinkSideTag is the board tag under which a side shares its picture.
func DataLinkSideTag(side Side) string { return "contacts-datalink-side-" + string(side) }

// DataLinkNameTag is the board tag addressed to a single body.
func DataLinkNameTag(name string) string { return "contacts-datalink-name-" + name }

// CommSideTag is the board tag of a side's voice channel.
func CommSideTag(side Side) string { return "contacts-comm-side-" + string(side) }

type DataLinkConfig struct {
	Families FamilySet
	// SendFamilies limits which trackable contacts are shared.
	SendFamilies FamilySet
	CanReceive   bool
	CanSend      bool
}

// DataLink shares trackable contacts with the owner's side and receives
// those shared by the side or addressed to the owner by name.
type DataLink struct {
	base
	cfg     DataLinkConfig
	sideTag string
	recv    []string
}

func NewDataLink(env Env, cfg DataLinkConfig) *DataLink {
	cfg.SendFamilies = cfg.SendFamilies.Clone()
	side := DataLinkSideTag(env.Owner.Side())
	return &DataLink{
		base:    newBase(env, cfg.Families),
		cfg:     cfg,
		sideTag: side,
		recv:    []string{side, DataLinkNameTag(env.Owner.Name())},
	}
}

func (s *DataLink) Test(body Body) *Contact {
	board := s.env.Board
	if board == nil || !s.cfg.CanReceive || !s.accepts(body) {
		return nil
	}
	now := s.env.World.Time()
	for _, tag := range s.recv {
		if info := board.Lookup(tag, body.ID(), now); info != nil {
			c := s.contact(body)
			c.Copy(info)
			c.Firsthand = false
			return c
		}
	}
	return nil
}

func (s *DataLink) Note(c *Contact, expire float64) {
	board := s.env.Board
	if board == nil || !c.Firsthand || !s.cfg.CanSend || !c.Trackable() || !s.cfg.SendFamilies.Has(c.Family) {
		return
	}
	now := s.env.World.Time()
	info := board.Peek(s.sideTag, c.Body.ID(), now)
	if info == nil {
		info = c.Clone()
		info.Firsthand = false
	} else {
		info.Accumulate(c)
	}
	board.Publish(s.sideTag, c.Body, info, expire, now)
}

// Comm is the side's voice channel: firsthand sightings are called out
// with position and velocity only, and heard back as secondhand contacts.
type Comm struct {
	base
	tag string
}

func NewComm(env Env, families FamilySet) *Comm {
	return &Comm{base: newBase(env, families), tag: CommSideTag(env.Owner.Side())}
}

func (s *Comm) Test(body Body) *Contact {
	board := s.env.Board
	if board == nil || !s.accepts(body) {
		return nil
	}
	info := board.Lookup(s.tag, body.ID(), s.env.World.Time())
	if info == nil {
		return nil
	}
	c := s.contact(body)
	c.Copy(info)
	c.Firsthand = false
	return c
}

func (s *Comm) Note(c *Contact, expire float64) {
	board := s.env.Board
	if board == nil || !c.Firsthand {
		return
	}
	now := s.env.World.Time()
	info := board.Peek(s.tag, c.Body.ID(), now)
	if info == nil {
		info = c.Clone()
	} else {
		info.Accumulate(c)
	}
	info.Acc = nil
	info.Track, info.Firsthand = false, false
	board.Publish(s.tag, c.Body, info, expire, now)
}
