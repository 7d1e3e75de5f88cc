package testutils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/freeorion/orders/pkg/universe"
)

// Fixture IDs used by Galaxy.
const (
	Empire1 universe.EmpireID = 1
	Empire2 universe.EmpireID = 2

	HomeSystem     universe.ObjectID = 3
	FrontierSystem universe.ObjectID = 5
	EnemySystem    universe.ObjectID = 7
	IsolatedSystem universe.ObjectID = 8
	HomePlanet     universe.ObjectID = 101 // empire 1 capital
	BarrenPlanet   universe.ObjectID = 102 // unowned, unpopulated, home system
	EnemyOutpost   universe.ObjectID = 103 // empire 2, shield 0, frontier
	ShieldedPlanet universe.ObjectID = 104 // empire 2, shield 5, frontier
	EnemyCapital   universe.ObjectID = 105
	FrontierBarren universe.ObjectID = 106 // unowned, unpopulated, not visible to empire 1
	HomeFleet      universe.ObjectID = 201 // Warship, ColonyShip
	PicketFleet    universe.ObjectID = 202 // PicketShip
	TroopFleet     universe.ObjectID = 203 // TroopShip, SmallTroopShip
	EnemyFleet     universe.ObjectID = 204 // EnemyShip
	DeepSpaceFleet universe.ObjectID = 205 // ScoutShip, between systems 1 and 2
	Warship        universe.ObjectID = 301
	ColonyShip     universe.ObjectID = 302
	PicketShip     universe.ObjectID = 303
	TroopShip      universe.ObjectID = 304
	SmallTroopShip universe.ObjectID = 305
	EnemyShip      universe.ObjectID = 306
	ScoutShip      universe.ObjectID = 307
	Shipyard       universe.ObjectID = 401

	WarshipDesign = 1
	ColonyDesign  = 2
	TroopDesign   = 3
	FixtureTurn   = 12

	DeepSpaceX, DeepSpaceY = 150.0, 50.0

	firstSystem universe.ObjectID = 1
)

// Production queue element IDs of empire 1, in queue order.
var ProductionIDs = []uuid.UUID{ //nolint:gochecknoglobals // fixture data
	uuid.MustParse("6f1c2a1e-0a53-4a55-9a43-0f3e7d1c0001"),
	uuid.MustParse("6f1c2a1e-0a53-4a55-9a43-0f3e7d1c0002"),
	uuid.MustParse("6f1c2a1e-0a53-4a55-9a43-0f3e7d1c0003"),
}

// Galaxy builds a small two-empire game used across the module's tests.
//
// Systems 1 to 7 form a chain with a shortcut lane between 3 and 6, so the shortest route from
// 3 to 7 is 3, 6, 7. System 8 has no lanes.
func Galaxy(t testing.TB) *universe.Context {
	t.Helper()

	ctx := universe.NewContext()
	ctx.CurrentTurn = FixtureTurn
	u := ctx.Universe

	for i := firstSystem; i <= IsolatedSystem; i++ {
		require.NoError(t, u.InsertSystem(&universe.System{
			ObjectHeader: universe.ObjectHeader{
				ID: i, Name: "System " + string(rune('A'+i-1)), Owner: universe.NoEmpire,
				X: float64(i) * 100, Y: 0,
			},
		}))
	}
	for _, lane := range [][2]universe.ObjectID{{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {3, 6}} {
		require.NoError(t, u.AddLane(lane[0], lane[1]))
	}

	foci := []string{"FOCUS_INDUSTRY", "FOCUS_RESEARCH", "FOCUS_INFLUENCE"}
	planets := []*universe.Planet{
		planet(HomePlanet, "Terra", Empire1, HomeSystem, "SP_HUMAN", 10, 20, 8, foci),
		planet(BarrenPlanet, "Terra II", universe.NoEmpire, HomeSystem, "", 0, 0, 0, nil),
		planet(EnemyOutpost, "Zorg Minor", Empire2, FrontierSystem, "SP_ZORG", 6, 0, 2, foci),
		planet(ShieldedPlanet, "Zorg Major", Empire2, FrontierSystem, "SP_ZORG", 8, 5, 4, foci),
		planet(EnemyCapital, "Zorg Prime", Empire2, EnemySystem, "SP_ZORG", 12, 30, 15, foci),
		planet(FrontierBarren, "Frontier Rock", universe.NoEmpire, FrontierSystem, "", 0, 0, 0, nil),
	}
	for _, p := range planets {
		require.NoError(t, u.InsertPlanet(p))
	}

	designs := []*universe.ShipDesign{
		{ID: WarshipDesign, Name: "Warship", Hull: "SH_BASIC_MEDIUM",
			Parts: []string{"SR_WEAPON_1_1", "AR_STD_PLATE", ""}, DesignedBy: universe.NoEmpire, Producible: true},
		{ID: ColonyDesign, Name: "Colony Ship", Hull: "SH_BASIC_MEDIUM",
			Parts: []string{"CO_COLONY_POD"}, DesignedBy: universe.NoEmpire, Producible: true},
		{ID: TroopDesign, Name: "Troop Ship", Hull: "SH_BASIC_MEDIUM",
			Parts: []string{"GT_TROOP_POD", "GT_TROOP_POD"}, DesignedBy: universe.NoEmpire, Producible: true},
	}
	for _, d := range designs {
		_, err := u.InsertShipDesign(d)
		require.NoError(t, err)
	}

	fleets := []*universe.Fleet{
		fleet(HomeFleet, "Home Guard", Empire1, HomeSystem, 300, 0),
		fleet(PicketFleet, "Picket", Empire1, HomeSystem, 300, 0),
		fleet(TroopFleet, "Invasion Force", Empire1, FrontierSystem, 500, 0),
		fleet(EnemyFleet, "Zorg Swarm", Empire2, EnemySystem, 700, 0),
		fleet(DeepSpaceFleet, "Scouts", Empire1, universe.InvalidObjectID, DeepSpaceX, DeepSpaceY),
	}
	deep := fleets[len(fleets)-1]
	deep.PrevSystemID, deep.NextSystemID, deep.FinalDestinationID = 1, 2, 2
	deep.Route = []universe.ObjectID{2}
	for _, f := range fleets {
		require.NoError(t, u.InsertFleet(f))
	}

	ships := []struct {
		ship  *universe.Ship
		fleet universe.ObjectID
	}{
		{ship(Warship, "Valiant", WarshipDesign, 0, 0), HomeFleet},
		{ship(ColonyShip, "Seed", ColonyDesign, 1, 0), HomeFleet},
		{ship(PicketShip, "Sentinel", WarshipDesign, 0, 0), PicketFleet},
		{ship(TroopShip, "Lander", TroopDesign, 0, 6), TroopFleet},
		{ship(SmallTroopShip, "Skiff", TroopDesign, 0, 2), TroopFleet},
		{ship(EnemyShip, "Stinger", WarshipDesign, 0, 0), EnemyFleet},
		{ship(ScoutShip, "Wanderer", WarshipDesign, 0, 0), DeepSpaceFleet},
	}
	for _, s := range ships {
		f, err := u.Fleet(s.fleet)
		require.NoError(t, err)
		s.ship.Owner = f.Owner
		s.ship.SystemID, s.ship.X, s.ship.Y = f.SystemID, f.X, f.Y
		require.NoError(t, u.InsertShip(s.ship))
		u.AddShipToFleet(f, s.ship)
	}

	require.NoError(t, u.InsertBuilding(&universe.Building{
		ObjectHeader: universe.ObjectHeader{
			ID: Shipyard, Name: "Terra Shipyard", Owner: Empire1, SystemID: HomeSystem, X: 300,
		},
		BuildingType: "BLD_SHIPYARD_BASE",
		PlanetID:     HomePlanet,
	}))

	for id, vis := range map[universe.ObjectID]universe.Visibility{
		BarrenPlanet:   universe.VisibilityPartial,
		EnemyOutpost:   universe.VisibilityPartial,
		ShieldedPlanet: universe.VisibilityPartial,
		EnemyCapital:   universe.VisibilityBasic,
		FrontierBarren: universe.VisibilityNone,
	} {
		u.SetVisibility(Empire1, id, vis)
	}
	u.SetVisibility(Empire2, HomePlanet, universe.VisibilityPartial)

	content(ctx.Content)
	empires(t, ctx.Empires)
	return ctx
}

func planet(
	id universe.ObjectID, name string, owner universe.EmpireID, system universe.ObjectID,
	species string, pop, shield, troops float64, foci []string,
) *universe.Planet {
	p := &universe.Planet{
		ObjectHeader: universe.ObjectHeader{
			ID: id, Name: name, Owner: owner, SystemID: system, X: float64(system) * 100,
		},
		Species:              species,
		Population:           pop,
		Shield:               shield,
		Troops:               troops,
		AvailableFoci:        foci,
		LastTurnFocusChanged: 0,
		InvadingEmpire:       universe.NoEmpire,
	}
	if len(foci) > 0 {
		p.Focus = foci[0]
	}
	return p
}

func fleet(id universe.ObjectID, name string, owner universe.EmpireID, system universe.ObjectID, x, y float64) *universe.Fleet {
	return &universe.Fleet{
		ObjectHeader: universe.ObjectHeader{
			ID: id, Name: name, Owner: owner, SystemID: system, X: x, Y: y,
		},
		PrevSystemID:       system,
		NextSystemID:       system,
		FinalDestinationID: system,
		Aggression:         universe.FleetObstructive,
	}
}

func ship(id universe.ObjectID, name string, design int, colony, troops float64) *universe.Ship {
	return &universe.Ship{
		ObjectHeader:          universe.ObjectHeader{ID: id, Name: name},
		FleetID:               universe.InvalidObjectID,
		DesignID:              design,
		ColonyCapacity:        colony,
		CanColonize:           colony > 0,
		TroopCapacity:         troops,
		OrderedColonizePlanet: universe.InvalidObjectID,
		OrderedInvadePlanet:   universe.InvalidObjectID,
	}
}

func content(c *universe.Content) {
	for _, tech := range []*universe.Tech{
		{Name: "LRN_ALGO_ELEGANCE", Researchable: true},
		{Name: "GRO_PLANET_ECOL", Researchable: true},
		{Name: "LRN_PHYS_BRAIN", Prerequisites: []string{"LRN_ALGO_ELEGANCE"}, Researchable: true},
		{Name: "PRO_ROBOTIC_PROD", Researchable: true},
		{Name: "SHP_ZORTRIUM_PLATE", Prerequisites: []string{"PRO_ROBOTIC_PROD"}, Researchable: true},
		{Name: "GRO_SUBTER_HAB", Prerequisites: []string{"GRO_PLANET_ECOL"}, Researchable: true},
		{Name: "DEF_ROOT_DEFENSE", Researchable: false},
	} {
		c.Techs[tech.Name] = tech
	}
	for _, b := range []*universe.BuildingType{
		{Name: "BLD_SHIPYARD_BASE", Producible: true},
		{Name: "BLD_MILITARY_COMMAND", Producible: true},
		{Name: "BLD_GAS_GIANT_GEN", Producible: false},
	} {
		c.BuildingTypes[b.Name] = b
	}
	for _, h := range []*universe.Hull{
		{Name: "SH_BASIC_MEDIUM", Slots: 3, Producible: true},
		{Name: "SH_ROBOTIC", Slots: 5, Producible: true},
	} {
		c.Hulls[h.Name] = h
	}
	for _, p := range []*universe.Part{
		{Name: "SR_WEAPON_1_1", Class: "ShortRange", Producible: true},
		{Name: "AR_STD_PLATE", Class: "Armour", Producible: true},
		{Name: "CO_COLONY_POD", Class: "Colony", Producible: true},
		{Name: "GT_TROOP_POD", Class: "Troops", Producible: true},
		{Name: "DT_DETECTOR_1", Class: "Detector", Producible: true},
	} {
		c.Parts[p.Name] = p
	}
}

func empires(t testing.TB, m *universe.EmpireManager) {
	t.Helper()

	terran := universe.NewEmpire(Empire1, "Terran Union", "alice")
	terran.CapitalID = HomePlanet
	terran.ResearchedTechs["LRN_ALGO_ELEGANCE"] = 1
	terran.ResearchedTechs["GRO_PLANET_ECOL"] = 1
	terran.AvailableBuildingTypes = []string{"BLD_SHIPYARD_BASE", "BLD_MILITARY_COMMAND"}
	terran.ShipDesigns = []int{WarshipDesign, ColonyDesign, TroopDesign}
	for _, tech := range []string{"PRO_ROBOTIC_PROD", "SHP_ZORTRIUM_PLATE", "GRO_SUBTER_HAB"} {
		terran.ResearchQueue.Place(tech, -1)
	}
	items := []universe.ProductionItem{
		{BuildType: universe.BuildTypeBuilding, Name: "BLD_MILITARY_COMMAND"},
		{BuildType: universe.BuildTypeShip, DesignID: WarshipDesign},
		{BuildType: universe.BuildTypeShip, DesignID: ColonyDesign},
	}
	for i, item := range items {
		terran.ProductionQueue.Insert(universe.ProductionElement{
			ID: ProductionIDs[i], Item: item, Location: HomePlanet, Quantity: 1,
		}, -1)
	}
	require.NoError(t, m.Insert(terran))

	zorg := universe.NewEmpire(Empire2, "Zorgon Hive", "bob")
	zorg.CapitalID = EnemyCapital
	zorg.ResearchedTechs["LRN_ALGO_ELEGANCE"] = 1
	zorg.ShipDesigns = []int{WarshipDesign}
	require.NoError(t, m.Insert(zorg))
}
