package google

import (
	"strconv"
	"strings"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/session"
)

// codec decodes proto-encoded StreamingRecognizeResponses. The stream is
// open once the config request has been sent. There is no finalize message:
// the session half-closes the stream and the server ends it after the last
// result.
type codec struct {
	session.NoUpdates
}

func (codec) OpensOnConnect() bool { return true }

func (codec) EncodeAudio(chunk []byte) session.Frame { return session.Binary(chunk) }

func (codec) FinalizeFrame() (session.Frame, bool) { return session.Frame{}, false }

func (codec) ForceEndpointFrame() (session.Frame, bool) { return session.Frame{}, false }

func (codec) Decode(f session.Frame) (session.Decoded, error) {
	var resp speechpb.StreamingRecognizeResponse
	if err := proto.Unmarshal(f.Data, &resp); err != nil {
		return session.Decoded{}, err
	}

	if st := resp.GetError(); st != nil && st.GetCode() != 0 {
		e := providers.NewProviderError(providers.Google, providers.CodeTranscriptionError, st.GetMessage(), 0)
		e.Details = map[string]any{"grpc_code": st.GetCode()}
		return session.Decoded{Err: e}, nil
	}

	var events []providers.Event
	at := resp.GetSpeechEventTime().AsDuration().Seconds()
	switch resp.GetSpeechEventType() {
	case speechpb.StreamingRecognizeResponse_SPEECH_ACTIVITY_BEGIN:
		events = append(events, providers.SpeechStartEvent{Timestamp: at})
	case speechpb.StreamingRecognizeResponse_SPEECH_ACTIVITY_END:
		events = append(events, providers.SpeechEndEvent{Timestamp: at})
	case speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE,
		speechpb.StreamingRecognizeResponse_SPEECH_ACTIVITY_TIMEOUT:
		events = append(events, providers.MetadataEvent{Data: map[string]any{
			"speech_event": resp.GetSpeechEventType().String(),
		}})
	}

	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		alt := alts[0]
		text := strings.TrimSpace(alt.GetTranscript())
		if text == "" {
			continue
		}

		words := convertWords(alt.GetWords())
		ev := providers.TranscriptEvent{
			Text:     text,
			IsFinal:  r.GetIsFinal(),
			Words:    words,
			Language: r.GetLanguageCode(),
		}
		if len(words) > 0 {
			ev.Speaker = words[0].Speaker
		}
		if !r.GetIsFinal() {
			events = append(events, ev)
			continue
		}
		if c := alt.GetConfidence(); c > 0 {
			ev.Confidence = providers.Float(float64(c))
		}

		u := providers.Utterance{
			Text:       text,
			End:        r.GetResultEndTime().AsDuration().Seconds(),
			Speaker:    ev.Speaker,
			Confidence: ev.Confidence,
			Words:      words,
		}
		if len(words) > 0 {
			u.Start = words[0].Start
		}
		events = append(events, ev, providers.UtteranceEvent{Utterance: u})
	}
	return session.Decoded{Events: events}, nil
}

func convertWords(in []*speechpb.WordInfo) []providers.Word {
	if len(in) == 0 {
		return nil
	}
	out := make([]providers.Word, 0, len(in))
	for _, w := range in {
		word := providers.Word{
			Text:    w.GetWord(),
			Start:   w.GetStartTime().AsDuration().Seconds(),
			End:     w.GetEndTime().AsDuration().Seconds(),
			Speaker: speakerOf(w),
		}
		if c := w.GetConfidence(); c > 0 {
			word.Confidence = providers.Float(float64(c))
		}
		out = append(out, word)
	}
	return out
}

func speakerOf(w *speechpb.WordInfo) string {
	if l := w.GetSpeakerLabel(); l != "" {
		return l
	}
	if tag := w.GetSpeakerTag(); tag > 0 {
		return strconv.Itoa(int(tag))
	}
	return ""
}

// normalizeRecognize builds the unified response of a Recognize call. With
// diarization on, Google repeats every word with its speaker in the last
// result, so words and utterances come from that result alone.
func normalizeRecognize(resp *speechpb.RecognizeResponse, diarization bool) *providers.TranscriptResponse {
	raw, _ := protojson.Marshal(resp)

	results := resp.GetResults()
	if len(results) == 0 {
		return providers.NewFailure(providers.Google, &providers.ErrorInfo{
			Code:    providers.CodeNoResults,
			Message: providers.DefaultMessage(providers.CodeNoResults),
		}, raw)
	}

	id := uuid.NewString()
	if rid := resp.GetRequestId(); rid != 0 {
		id = strconv.FormatInt(rid, 10)
	}
	data := &providers.TranscriptData{
		ID:       id,
		Status:   providers.StatusCompleted,
		Language: results[0].GetLanguageCode(),
		Duration: providers.Float(results[len(results)-1].GetResultEndTime().AsDuration().Seconds()),
	}

	transcribed := results
	if diarization && len(results) > 1 {
		transcribed = results[:len(results)-1]
	}
	var (
		texts      []string
		confidence float64
		scored     int
	)
	for _, r := range transcribed {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			texts = append(texts, t)
		}
		if c := alts[0].GetConfidence(); c > 0 {
			confidence += float64(c)
			scored++
		}
		if !diarization {
			words := convertWords(alts[0].GetWords())
			data.Words = append(data.Words, words...)
			data.Utterances = append(data.Utterances, utteranceOf(strings.TrimSpace(alts[0].GetTranscript()), words, r))
		}
	}
	data.Text = strings.Join(texts, " ")
	if scored > 0 {
		data.Confidence = providers.Float(confidence / float64(scored))
	}

	if diarization {
		last := results[len(results)-1]
		if alts := last.GetAlternatives(); len(alts) > 0 {
			data.Words = convertWords(alts[0].GetWords())
			data.Utterances = speakerTurns(data.Words)
		}
		data.Speakers = providers.SpeakersFrom(data.Utterances)
	}
	return providers.NewSuccess(providers.Google, data, raw)
}

func utteranceOf(text string, words []providers.Word, r *speechpb.SpeechRecognitionResult) providers.Utterance {
	u := providers.Utterance{
		Text:  text,
		End:   r.GetResultEndTime().AsDuration().Seconds(),
		Words: words,
	}
	if len(words) > 0 {
		u.Start = words[0].Start
		u.End = words[len(words)-1].End
	}
	if c := r.GetAlternatives()[0].GetConfidence(); c > 0 {
		u.Confidence = providers.Float(float64(c))
	}
	return u
}

// speakerTurns groups consecutive words of the same speaker.
func speakerTurns(words []providers.Word) []providers.Utterance {
	var out []providers.Utterance
	for _, w := range words {
		if n := len(out); n > 0 && out[n-1].Speaker == w.Speaker {
			cur := &out[n-1]
			cur.Text += " " + w.Text
			cur.End = w.End
			cur.Words = append(cur.Words, w)
			continue
		}
		out = append(out, providers.Utterance{
			Text:    w.Text,
			Start:   w.Start,
			End:     w.End,
			Speaker: w.Speaker,
			Words:   []providers.Word{w},
		})
	}
	return out
}
