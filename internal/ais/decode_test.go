package ais

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"aisdecode/internal/bitseq"
	"aisdecode/internal/nmea"
	"aisdecode/internal/sixbit"
)

func TestDecode_BaseStationReport(t *testing.T) {
	m := mustDecodeLines(t, "!AIVDM,1,1,,B,4h3Ovk1udp6I9o>jPHEdjdW000S:,0*0C")
	r, ok := m.(*BaseStationReport)
	if !ok {
		t.Fatalf("got %T, want *BaseStationReport", m)
	}
	if r.Type() != TypeBaseStationReport || r.RepeatIndicator() != 3 || r.SourceMMSI() != 3669708 {
		t.Fatalf("header type=%v repeat=%d mmsi=%d", r.Type(), r.RepeatIndicator(), r.SourceMMSI())
	}
	ts, ok := r.Timestamp()
	if !ok || !ts.Equal(time.Date(2011, 3, 16, 6, 25, 9, 0, time.UTC)) {
		t.Fatalf("timestamp=%v ok=%v", ts, ok)
	}
	if !r.PositionAccuracy || r.RAIM {
		t.Fatalf("accuracy=%v raim=%v", r.PositionAccuracy, r.RAIM)
	}
	lat, lon, ok := r.Position()
	if !ok || !near(lat, 37.923283333) || !near(lon, -122.59838) {
		t.Fatalf("position=%v,%v ok=%v", lat, lon, ok)
	}
	if r.PositionFixingDevice != EPFDSurveyed || r.RadioStatus != 2250 {
		t.Fatalf("epfd=%v radio=%d", r.PositionFixingDevice, r.RadioStatus)
	}
}

func TestDecode_PositionReport(t *testing.T) {
	line := "!BSVDM,1,1,,A,1:02Ih001U0d=V:Op85<2aT>0<0F,0*3B"
	m := mustDecodeLines(t, line)
	r, ok := m.(*PositionReport)
	if !ok {
		t.Fatalf("got %T, want *PositionReport", m)
	}
	if r.Type() != TypePositionReportScheduled || r.SourceMMSI() != 671128000 {
		t.Fatalf("type=%v mmsi=%d", r.Type(), r.SourceMMSI())
	}
	if r.NavigationStatus != NavUnderwayUsingEngine || r.RateOfTurn != 0 {
		t.Fatalf("status=%v rot=%d", r.NavigationStatus, r.RateOfTurn)
	}
	if !near(r.SpeedOverGround, 10.1) || !near(r.CourseOverGround, 308.2) {
		t.Fatalf("sog=%v cog=%v", r.SpeedOverGround, r.CourseOverGround)
	}
	if !near(r.Longitude, 9.658355) || !near(r.Latitude, 55.709046667) {
		t.Fatalf("lon=%v lat=%v", r.Longitude, r.Latitude)
	}
	if r.TrueHeading != 306 || !r.HeadingAvailable() || r.Second != 7 {
		t.Fatalf("heading=%d second=%d", r.TrueHeading, r.Second)
	}
	if r.ManeuverIndicator != ManeuverNotAvailable || r.RAIM || r.RadioStatus != 49174 {
		t.Fatalf("maneuver=%v raim=%v radio=%d", r.ManeuverIndicator, r.RAIM, r.RadioStatus)
	}
	raw := m.Sentences()
	if len(raw) != 1 || raw[0].Raw != line {
		t.Fatalf("sentences=%v", raw)
	}
	if m.Bits().Len() != 168 {
		t.Fatalf("bits=%d", m.Bits().Len())
	}
}

func TestDecode_ShipAndVoyageData(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  ShipAndVoyageData
		eta   string
	}{
		{
			name: "mississippi voyager",
			lines: []string{
				"!AIVDM,2,1,3,A,55MuUD02;EFUL@CO;W@lU=<U=<U10V1HuT4LE:1DC@T>B4kC0DliSp=t,0*14",
				"!AIVDM,2,2,3,A,888888888888880,2*27",
			},
			want: ShipAndVoyageData{
				Header:               Header{MessageType: TypeShipAndVoyageData, MMSI: 366962000},
				IMO:                  9131369,
				CallSign:             "WDD7294",
				ShipName:             "MISSISSIPPI VOYAGER",
				ShipType:             84,
				Dimensions:           Dimensions{ToBow: 154, ToStern: 36, ToPort: 14, ToStarboard: 18},
				PositionFixingDevice: EPFDGPS,
				Draught:              8.3,
				Destination:          "SFO 70",
			},
			eta: "06-03 19:00",
		},
		{
			name: "padded name and undefined epfd",
			lines: []string{
				"!AIVDM,2,1,0,B,539S:k40000000c3G04PPh63<00000000080000o1PVG2uGD:00000000000,0*34",
				"!AIVDM,2,2,0,B,00000000000,2*27",
			},
			want: ShipAndVoyageData{
				Header:               Header{MessageType: TypeShipAndVoyageData, MMSI: 211339980},
				AISVersion:           1,
				CallSign:             "J050A",
				ShipName:             "HHLA 3         B",
				ShipType:             55,
				Dimensions:           Dimensions{ToBow: 12, ToStern: 38, ToPort: 23, ToStarboard: 2},
				PositionFixingDevice: 15,
			},
			eta: "14-05 20:10",
		},
		{
			name: "base station talker",
			lines: []string{
				"!BSVDM,2,1,5,A,5:02Ih01WrRsEH57J20H5P8u8N222222222222167H66663k085QBS1H,0*55",
				"!BSVDM,2,2,5,A,888888888888880,2*38",
			},
			want: ShipAndVoyageData{
				Header:               Header{MessageType: TypeShipAndVoyageData, MMSI: 671128000},
				IMO:                  6810158,
				CallSign:             "5VAQ6",
				ShipName:             "FAXBORG",
				ShipType:             70,
				Dimensions:           Dimensions{ToBow: 59, ToStern: 6, ToPort: 6, ToStarboard: 6},
				PositionFixingDevice: EPFDGPS,
				Draught:              3.2,
				Destination:          "VEJLE",
			},
			eta: "07-08 19:00",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := mustDecodeLines(t, tc.lines...)
			got, ok := m.(*ShipAndVoyageData)
			if !ok {
				t.Fatalf("got %T, want *ShipAndVoyageData", m)
			}
			if got.Type() != tc.want.MessageType || got.SourceMMSI() != tc.want.MMSI || got.RepeatIndicator() != 0 {
				t.Fatalf("header %+v", got.Header)
			}
			if got.AISVersion != tc.want.AISVersion || got.IMO != tc.want.IMO {
				t.Fatalf("version=%d imo=%d", got.AISVersion, got.IMO)
			}
			if got.CallSign != tc.want.CallSign || got.ShipName != tc.want.ShipName {
				t.Fatalf("callsign=%q name=%q", got.CallSign, got.ShipName)
			}
			if got.ShipType != tc.want.ShipType || got.Dimensions != tc.want.Dimensions {
				t.Fatalf("shiptype=%v dims=%+v", got.ShipType, got.Dimensions)
			}
			if got.PositionFixingDevice != tc.want.PositionFixingDevice {
				t.Fatalf("epfd=%v", got.PositionFixingDevice)
			}
			if !near(got.Draught, tc.want.Draught) || got.Destination != tc.want.Destination || got.Dte {
				t.Fatalf("draught=%v destination=%q dte=%v", got.Draught, got.Destination, got.Dte)
			}
			if got.ETA() != tc.eta {
				t.Fatalf("eta=%q want %q", got.ETA(), tc.eta)
			}
			if len(got.Sentences()) != len(tc.lines) {
				t.Fatalf("sentences=%d", len(got.Sentences()))
			}
		})
	}
}

func TestShipAndVoyageData_Names(t *testing.T) {
	m := mustDecodeLines(t,
		"!AIVDM,2,1,3,A,55MuUD02;EFUL@CO;W@lU=<U=<U10V1HuT4LE:1DC@T>B4kC0DliSp=t,0*14",
		"!AIVDM,2,2,3,A,888888888888880,2*27",
	).(*ShipAndVoyageData)
	if m.ShipType.String() != "TankerHazardousD" {
		t.Fatalf("shiptype=%s", m.ShipType)
	}
	if m.PositionFixingDevice.String() != "Gps" || m.Type().String() != "ShipAndVoyageRelatedData" {
		t.Fatalf("epfd=%s type=%s", m.PositionFixingDevice, m.Type())
	}
	if m.Dimensions.Length() != 190 || m.Dimensions.Beam() != 32 {
		t.Fatalf("length=%d beam=%d", m.Dimensions.Length(), m.Dimensions.Beam())
	}
}

func TestDecode_EmptyMessageIsUnsupported(t *testing.T) {
	s, err := nmea.Parse("!AIVDM,1,1,,B,00,4*21")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = DecodeSentences([]nmea.Sentence{s}, DecodeOptions{})
	if !errors.Is(err, ErrUnsupportedMessageType) {
		t.Fatalf("expected ErrUnsupportedMessageType, got %v", err)
	}
	var typeErr *UnsupportedMessageTypeError
	if !errors.As(err, &typeErr) || typeErr.Code != 0 {
		t.Fatalf("expected code 0, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		bits bitseq.Sequence
		want MessageType
		code int
	}{
		{"type 1", pack(t, 6, u(1, 6)), 1, 0},
		{"type 27", pack(t, 6, u(27, 6)), 27, 0},
		{"type 0", pack(t, 6, u(0, 6)), 0, 0},
		{"type 28", pack(t, 6, u(28, 6)), 0, 28},
		{"type 63", pack(t, 6, u(63, 6)), 0, 63},
		{"too short", pack(t, 5, u(1, 5)), 0, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.bits)
			if tc.want != 0 {
				if err != nil || got != tc.want {
					t.Fatalf("Classify=%v,%v want %v", got, err, tc.want)
				}
				return
			}
			var typeErr *UnsupportedMessageTypeError
			if !errors.As(err, &typeErr) || typeErr.Code != tc.code {
				t.Fatalf("expected unsupported code %d, got %v", tc.code, err)
			}
		})
	}
}

func TestValidateLength(t *testing.T) {
	cases := []struct {
		typ MessageType
		n   int
		ok  bool
	}{
		{1, 168, true}, {1, 167, false}, {1, 169, false},
		{2, 168, true}, {3, 170, false}, {4, 168, true}, {4, 160, false},
		{5, 424, true}, {5, 423, false}, {5, 426, false},
		{6, 1008, true}, {6, 88, true}, {6, 1009, false},
		{7, 72, true}, {7, 104, true}, {7, 136, true}, {7, 168, true}, {7, 100, false},
		{8, 0, true}, {8, 1008, true}, {8, 1014, false},
		{9, 168, true}, {9, 166, false},
		{10, 72, true}, {10, 70, false},
		{11, 168, true}, {11, 0, false},
		{12, 1008, true}, {12, 1010, false},
		{13, 72, true}, {13, 80, false},
		{14, 40, true}, {14, 1009, false},
		{15, 88, true}, {15, 110, true}, {15, 112, true}, {15, 160, true}, {15, 168, false},
		{16, 96, true}, {16, 144, true}, {16, 168, false},
		{17, 80, true}, {17, 816, true}, {17, 79, false}, {17, 817, false},
		{18, 168, true}, {18, 160, false},
		{19, 312, true}, {19, 310, false},
		{20, 72, true}, {20, 160, true}, {20, 71, false}, {20, 161, false},
		{21, 272, true}, {21, 360, true}, {21, 300, true}, {21, 271, false}, {21, 361, false},
		{22, 168, true}, {22, 162, false},
		{23, 160, true}, {23, 168, false},
		{24, 160, true}, {24, 168, true}, {24, 162, false},
		{25, 0, true}, {25, 168, true}, {25, 170, false},
		{26, 0, true}, {26, 5000, true},
		{27, 96, true}, {27, 168, true}, {27, 100, false},
	}
	for _, tc := range cases {
		err := ValidateLength(tc.typ, tc.n)
		if tc.ok && err != nil {
			t.Fatalf("ValidateLength(%d,%d): unexpected %v", tc.typ, tc.n, err)
		}
		if !tc.ok {
			var lenErr *IllegalMessageLengthError
			if !errors.As(err, &lenErr) || lenErr.Type != tc.typ || lenErr.Actual != tc.n {
				t.Fatalf("ValidateLength(%d,%d): expected IllegalMessageLengthError, got %v", tc.typ, tc.n, err)
			}
			if !errors.Is(err, ErrIllegalMessageLength) {
				t.Fatalf("expected errors.Is match")
			}
		}
	}
	if err := ValidateLength(0, 168); !errors.Is(err, ErrUnsupportedMessageType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestDecode_LengthCheck(t *testing.T) {
	short := pack(t, 160, hdr(1, 0, 123456789), u(0, 4), sg(-4, 8), u(55, 10), flag(false), sg(600000, 28), sg(-600000, 27), u(900, 12), u(45, 9), u(30, 6), u(0, 2), u(0, 3), flag(true), u(0, 11))
	_, err := Decode(short, DecodeOptions{})
	var lenErr *IllegalMessageLengthError
	if !errors.As(err, &lenErr) || lenErr.Type != 1 || lenErr.Actual != 160 {
		t.Fatalf("expected illegal length, got %v", err)
	}

	m, err := Decode(short, DecodeOptions{SkipLengthCheck: true})
	if err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	r := m.(*PositionReport)
	if r.SourceMMSI() != 123456789 || r.RateOfTurn != -4 || !near(r.SpeedOverGround, 5.5) {
		t.Fatalf("mmsi=%d rot=%d sog=%v", r.SourceMMSI(), r.RateOfTurn, r.SpeedOverGround)
	}
	if !near(r.Longitude, 1) || !near(r.Latitude, -1) || !r.RAIM {
		t.Fatalf("lon=%v lat=%v raim=%v", r.Longitude, r.Latitude, r.RAIM)
	}
	// Radio status runs past the end and reads as zero-extended.
	if r.RadioStatus != 0 {
		t.Fatalf("radio=%d", r.RadioStatus)
	}
}

func TestDecode_Deterministic(t *testing.T) {
	bits, err := sixbit.Decode("1:02Ih001U0d=V:Op85<2aT>0<0F", 0)
	if err != nil {
		t.Fatalf("sixbit: %v", err)
	}
	a := mustDecode(t, bits)
	b := mustDecode(t, bits)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("decoding twice gave different messages")
	}
}

func TestDecodeSentences_FlippedChecksumStillDecodes(t *testing.T) {
	s, err := nmea.Parse("!AIVDM,1,1,,B,4h3Ovk1udp6I9o>jPHEdjdW000S:,0*00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.ChecksumValid {
		t.Fatalf("expected checksum mismatch")
	}
	m, err := DecodeSentences([]nmea.Sentence{s}, DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.SourceMMSI() != 3669708 {
		t.Fatalf("mmsi=%d", m.SourceMMSI())
	}
}

func TestDecodeSentences_Errors(t *testing.T) {
	if _, err := DecodeSentences(nil, DecodeOptions{}); err == nil {
		t.Fatalf("expected error for no sentences")
	}
	s, err := nmea.Parse("!AIVDM,1,1,,B,4h3Ovk1udp6I9o>jPHEdjdW000S:,7*0B")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := DecodeSentences([]nmea.Sentence{s}, DecodeOptions{}); !errors.Is(err, sixbit.ErrInvalidFillBits) {
		t.Fatalf("expected ErrInvalidFillBits, got %v", err)
	}
	s, err = nmea.Parse("!AIVDM,1,1,,B,4h3Ovk1udp6I9o>jPHEdjdW000S~,0*0C")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := DecodeSentences([]nmea.Sentence{s}, DecodeOptions{}); !errors.Is(err, sixbit.ErrInvalidArmorCharacter) {
		t.Fatalf("expected ErrInvalidArmorCharacter, got %v", err)
	}
}

func TestMarshalEnvelope(t *testing.T) {
	m := mustDecodeLines(t, "!BSVDM,1,1,,A,1:02Ih001U0d=V:Op85<2aT>0<0F,0*3B")
	raw, err := MarshalEnvelope(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got struct {
		Type      int      `json:"type"`
		TypeName  string   `json:"type_name"`
		MMSI      uint32   `json:"mmsi"`
		Sentences []string `json:"sentences"`
		Message   struct {
			MMSI        uint32  `json:"mmsi"`
			Longitude   float64 `json:"longitude"`
			TrueHeading int     `json:"true_heading"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != 1 || got.TypeName != "PositionReportClassAScheduled" || got.MMSI != 671128000 {
		t.Fatalf("envelope %+v", got)
	}
	if len(got.Sentences) != 1 || got.Message.MMSI != 671128000 || got.Message.TrueHeading != 306 {
		t.Fatalf("envelope %+v", got)
	}
	if !near(got.Message.Longitude, 9.658355) {
		t.Fatalf("longitude=%v", got.Message.Longitude)
	}
}
