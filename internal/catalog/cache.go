// Package catalog loads and indexes the location/room catalog. The backend
// is the source of truth; the cache never mutates a room or location, it
// only re-fetches. A snapshot is refreshed once per form mount, so a rename
// made by another session stays invisible until the next mount.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nkarpov/roombook/pkg/client"
	"github.com/nkarpov/roombook/pkg/domain"
)

// ErrUnavailable is returned by Load when either fetch fails. A partial
// result is treated as a total failure; the cache never serves half-built
// indexes.
var ErrUnavailable = errors.New("catalog unavailable")

// Cache indexes locations by id and rooms by parent location. Names are a
// display projection resolved through the index; the relation itself is
// always Room.LocationID.
type Cache struct {
	api *client.Client

	locations []domain.Location
	rooms     []domain.Room

	locByID     map[int64]domain.Location
	roomsByLoc  map[int64][]domain.Room
	locIDByName map[string]int64
	loaded      bool
}

// New creates an empty cache bound to an API client.
func New(api *client.Client) *Cache {
	return &Cache{api: api}
}

// FromSnapshot builds a cache directly from an already-fetched catalog.
func FromSnapshot(locations []domain.Location, rooms []domain.Room) *Cache {
	c := &Cache{}
	c.install(locations, rooms)
	return c
}

// Load fetches the full location and room sets concurrently and rebuilds
// the indexes. Both fetches must succeed.
func (c *Cache) Load(ctx context.Context) error {
	var (
		locations []domain.Location
		rooms     []domain.Room
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locations, err = c.api.ListLocations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rooms, err = c.api.ListRooms(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.install(locations, rooms)
	return nil
}

func (c *Cache) install(locations []domain.Location, rooms []domain.Room) {
	c.locations = locations
	c.rooms = rooms
	c.locByID = make(map[int64]domain.Location, len(locations))
	c.locIDByName = make(map[string]int64, len(locations))
	c.roomsByLoc = make(map[int64][]domain.Room, len(locations))
	for _, loc := range locations {
		c.locByID[loc.ID] = loc
		c.locIDByName[loc.Name] = loc.ID
	}
	for _, room := range rooms {
		c.roomsByLoc[room.LocationID] = append(c.roomsByLoc[room.LocationID], room)
	}
	for id := range c.roomsByLoc {
		rs := c.roomsByLoc[id]
		sort.Slice(rs, func(i, j int) bool { return rs[i].Name < rs[j].Name })
	}
	c.loaded = true
}

// Loaded reports whether a snapshot has been installed.
func (c *Cache) Loaded() bool {
	return c.loaded
}

// Locations returns the cached location set in fetch order.
func (c *Cache) Locations() []domain.Location {
	return c.locations
}

// Rooms returns the cached room set in fetch order.
func (c *Cache) Rooms() []domain.Room {
	return c.rooms
}

// LocationNames returns all location display names, sorted.
func (c *Cache) LocationNames() []string {
	names := make([]string, 0, len(c.locations))
	for _, loc := range c.locations {
		names = append(names, loc.Name)
	}
	sort.Strings(names)
	return names
}

// RoomsFor returns the rooms of the location with the given display name,
// ordered by room name. Unknown locations yield an empty slice.
func (c *Cache) RoomsFor(locationName string) []domain.Room {
	id, ok := c.locIDByName[locationName]
	if !ok {
		return nil
	}
	return c.roomsByLoc[id]
}

// Resolve maps a location name and room name to the room's id. This is the
// only name-to-id path the form is allowed to use; an unresolvable pair
// must fail validation rather than submit a sentinel.
func (c *Cache) Resolve(locationName, roomName string) (int64, bool) {
	for _, room := range c.RoomsFor(locationName) {
		if room.Name == roomName {
			return room.ID, true
		}
	}
	return 0, false
}

// RoomByID returns the room and its parent location for a room id. Stale
// references (a room outside the current snapshot) report ok == false.
func (c *Cache) RoomByID(id int64) (domain.Room, domain.Location, bool) {
	for _, room := range c.rooms {
		if room.ID == id {
			loc, ok := c.locByID[room.LocationID]
			if !ok && room.Location != nil {
				loc = *room.Location
				ok = true
			}
			return room, loc, ok
		}
	}
	return domain.Room{}, domain.Location{}, false
}

// LocationByID returns a cached location by id.
func (c *Cache) LocationByID(id int64) (domain.Location, bool) {
	loc, ok := c.locByID[id]
	return loc, ok
}
