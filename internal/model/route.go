package model

// TrainStop is one entry of a train's ordered station sequence as
// stored in the train_routes timetable.  StationNo increases
// monotonically along the train's path starting at 1.
//
// Fields:
//  TrainCode     – train the stop belongs to.
//  TrainFullCode – operator's full train code.
//  Station       – station name.
//  StationNo     – sequence number of the stop along the route.
type TrainStop struct {
	TrainCode     string // train_routes.train_code
	TrainFullCode string // train_routes.train_full_code
	Station       string // train_routes.station
	StationNo     int    // train_routes.station_no
}

// DirectRoute describes a single train that serves both endpoints of
// a requested journey in the right order.  It is the unit returned by
// the direct-route search.
type DirectRoute struct {
	TrainCode     string `json:"train_code"`
	TrainFullCode string `json:"train_full_code"`
	FromStation   string `json:"from_station"`
	FromStationNo int    `json:"from_station_no"`
	ToStation     string `json:"to_station"`
	ToStationNo   int    `json:"to_station_no"`
}
