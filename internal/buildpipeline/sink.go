package buildpipeline

// ChannelSink forwards stage progress events into a channel, typically one
// drained by an interactive renderer. A nil channel drops every event.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
