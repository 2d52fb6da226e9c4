package trafficlight

import "time"

var LoadURL = loadURL

func (l *TrafficLight) SetRandN(f func(int64) int64) {
	l.randN = f
}

func (l *TrafficLight) NextInterval() time.Duration {
	return l.nextInterval()
}

func (l *TrafficLight) SubscriberCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subscribers)
}
